// Package services maps backend endpoints one-to-one to Go functions.
// Services validate inputs and outputs but never cache or retry.
package services

import (
	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// ExperienceResource is the experience endpoint family
type ExperienceResource = Resource[models.Experience, models.CreateExperienceRequest, models.UpdateExperienceRequest]

// EducationResource is the education endpoint family
type EducationResource = Resource[models.Education, models.CreateEducationRequest, models.UpdateEducationRequest]

// CertificateResource is the certificate endpoint family
type CertificateResource = Resource[models.Certificate, models.CreateCertificateRequest, models.UpdateCertificateRequest]

// SocialLinkResource is the social link endpoint family
type SocialLinkResource = Resource[models.SocialLink, models.CreateSocialLinkRequest, models.UpdateSocialLinkRequest]

// Services groups every resource service behind one client
type Services struct {
	Auth            *Auth
	Profile         *Profile
	Projects        *Projects
	Experience      *ExperienceResource
	Education       *EducationResource
	Certificates    *CertificateResource
	SocialLinks     *SocialLinkResource
	SkillCategories *SkillCategoryResource
	Skills          *Skills
	Uploads         *Uploads
	Portfolios      *Portfolios
}

// New creates all services on top of api
func New(api *client.Client) *Services {
	return &Services{
		Auth:            NewAuth(api),
		Profile:         NewProfile(api),
		Projects:        NewProjects(api),
		Experience:      NewResource[models.Experience, models.CreateExperienceRequest, models.UpdateExperienceRequest](api, "/me/experience"),
		Education:       NewResource[models.Education, models.CreateEducationRequest, models.UpdateEducationRequest](api, "/me/education"),
		Certificates:    NewResource[models.Certificate, models.CreateCertificateRequest, models.UpdateCertificateRequest](api, "/me/certificates"),
		SocialLinks:     NewResource[models.SocialLink, models.CreateSocialLinkRequest, models.UpdateSocialLinkRequest](api, "/me/social-links"),
		SkillCategories: NewSkillCategories(api),
		Skills:          NewSkills(api),
		Uploads:         NewUploads(api),
		Portfolios:      NewPortfolios(api),
	}
}
