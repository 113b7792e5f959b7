package models

// Certificate may point back to an Education entry; it is not owned by it
type Certificate struct {
	ID            int64  `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Issuer        string `json:"issuer"`
	Description   string `json:"description"`
	IssueDate     *Date  `json:"issueDate"`
	CredentialURL string `json:"credentialUrl"`
	EducationID   *int64 `json:"educationId"`
	FileURL       string `json:"fileUrl"`
}

// CreateCertificateRequest is Certificate without server-generated fields
type CreateCertificateRequest struct {
	Name          string `json:"name" validate:"required,max=160"`
	Issuer        string `json:"issuer" validate:"omitempty,max=160"`
	Description   string `json:"description" validate:"omitempty,max=5000"`
	IssueDate     *Date  `json:"issueDate"`
	CredentialURL string `json:"credentialUrl" validate:"omitempty,url"`
	EducationID   *int64 `json:"educationId" validate:"omitempty,min=1"`
}

// UpdateCertificateRequest is the full certificate shape including its id
type UpdateCertificateRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateCertificateRequest
}

// ResourceID implements the id-scoped update contract
func (r UpdateCertificateRequest) ResourceID() int64 { return r.ID }
