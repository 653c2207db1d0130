package populate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/edvin/fedreg/internal/model"
)

// TokenEnv is read when the configuration carries no registry token.
const TokenEnv = "FEDREG_TOKEN"

type Config struct {
	Registry  RegistryConfig   `yaml:"registry"`
	Providers []ProviderConfig `yaml:"providers"`
}

type RegistryConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ProviderConfig describes one provider. It is either discovered from
// OpenStack through AuthURL and Projects, or read as a complete
// create-extended payload from PayloadFile.
type ProviderConfig struct {
	Name              string                   `yaml:"name"`
	Type              string                   `yaml:"type"`
	Status            string                   `yaml:"status"`
	IsPublic          bool                     `yaml:"is_public"`
	SupportEmails     []string                 `yaml:"support_emails"`
	AuthURL           string                   `yaml:"auth_url"`
	PayloadFile       string                   `yaml:"payload_file"`
	Regions           []RegionConfig           `yaml:"regions"`
	IdentityProviders []IdentityProviderConfig `yaml:"identity_providers"`
	Projects          []ProjectConfig          `yaml:"projects"`
}

type RegionConfig struct {
	Name     string          `yaml:"name"`
	Location *LocationConfig `yaml:"location"`
}

type LocationConfig struct {
	Site      string   `yaml:"site"`
	Country   string   `yaml:"country"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

type IdentityProviderConfig struct {
	Endpoint   string            `yaml:"endpoint"`
	GroupClaim string            `yaml:"group_claim"`
	Name       string            `yaml:"name"`
	Protocol   string            `yaml:"protocol"`
	Audience   string            `yaml:"audience"`
	UserGroups []UserGroupConfig `yaml:"user_groups"`
}

type UserGroupConfig struct {
	Name string    `yaml:"name"`
	SLA  SLAConfig `yaml:"sla"`
}

type SLAConfig struct {
	DocUUID   string `yaml:"doc_uuid"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Project   string `yaml:"project"`
}

// ProjectConfig is an OpenStack project inspected with an application
// credential scoped to it.
type ProjectConfig struct {
	ID                          string `yaml:"id"`
	ApplicationCredentialID     string `yaml:"application_credential_id"`
	ApplicationCredentialSecret string `yaml:"application_credential_secret"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Registry.Token == "" {
		cfg.Registry.Token = os.Getenv(TokenEnv)
	}
	return &cfg, nil
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.Registry.BaseURL == "" {
		errs = multierror.Append(errs, fmt.Errorf("registry.base_url is required"))
	}
	if len(c.Providers) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no providers configured"))
	}

	seen := map[string]bool{}
	for i, p := range c.Providers {
		where := fmt.Sprintf("providers[%d]", i)
		if p.Name != "" {
			where = fmt.Sprintf("provider %q", p.Name)
		}
		if p.PayloadFile != "" {
			continue
		}
		if p.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: name is required", where))
		} else if seen[p.Name] {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate provider name", where))
		}
		seen[p.Name] = true

		if p.AuthURL == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: auth_url or payload_file is required", where))
		}
		if len(p.Regions) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: at least one region is required", where))
		}
		if len(p.Projects) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: at least one project is required", where))
		}
		for j, proj := range p.Projects {
			if proj.ID == "" || proj.ApplicationCredentialID == "" || proj.ApplicationCredentialSecret == "" {
				errs = multierror.Append(errs, fmt.Errorf("%s: projects[%d] needs id, application_credential_id and application_credential_secret", where, j))
			}
		}
		for _, idp := range p.IdentityProviders {
			for _, g := range idp.UserGroups {
				if _, err := parseDate(g.SLA.StartDate); err != nil {
					errs = multierror.Append(errs, fmt.Errorf("%s: user group %q: start_date: %w", where, g.Name, err))
				}
				if _, err := parseDate(g.SLA.EndDate); err != nil {
					errs = multierror.Append(errs, fmt.Errorf("%s: user group %q: end_date: %w", where, g.Name, err))
				}
			}
		}
	}
	return errs.ErrorOrNil()
}

// readPayload loads a create-extended payload from a JSON file.
func readPayload(path string) (model.ProviderCreateExtended, error) {
	var p model.ProviderCreateExtended
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read payload: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse payload %s: %w", path, err)
	}
	return p, nil
}

// skeleton builds the part of the payload taken from configuration: the
// provider attributes, its identity providers and its regions with their
// locations.
func (p ProviderConfig) skeleton() (model.ProviderCreateExtended, error) {
	typ := p.Type
	if typ == "" {
		typ = model.ProviderTypeOpenStack
	}
	out := model.ProviderCreateExtended{Provider: model.NewProvider(p.Name, typ)}
	out.IsPublic = p.IsPublic
	if p.Status != "" {
		out.Status = p.Status
	}
	if p.SupportEmails != nil {
		out.SupportEmails = p.SupportEmails
	}

	for _, idp := range p.IdentityProviders {
		ext := model.IdentityProviderCreateExtended{
			IdentityProvider: model.IdentityProvider{Endpoint: idp.Endpoint, GroupClaim: idp.GroupClaim},
			Relationship:     model.AuthMethod{IdPName: idp.Name, Protocol: idp.Protocol, Audience: idp.Audience},
		}
		for _, g := range idp.UserGroups {
			start, err := parseDate(g.SLA.StartDate)
			if err != nil {
				return out, fmt.Errorf("user group %q: %w", g.Name, err)
			}
			end, err := parseDate(g.SLA.EndDate)
			if err != nil {
				return out, fmt.Errorf("user group %q: %w", g.Name, err)
			}
			ext.UserGroups = append(ext.UserGroups, model.UserGroupCreateExtended{
				UserGroup: model.UserGroup{Name: g.Name},
				SLA: model.SLACreateExtended{
					SLA:     model.SLA{DocUUID: g.SLA.DocUUID, StartDate: start, EndDate: end},
					Project: g.SLA.Project,
				},
			})
		}
		out.IdentityProviders = append(out.IdentityProviders, ext)
	}

	for _, r := range p.Regions {
		region := model.RegionCreateExtended{Region: model.NewRegion(r.Name)}
		if r.Location != nil {
			region.Location = &model.Location{
				Site:      r.Location.Site,
				Country:   r.Location.Country,
				Latitude:  r.Location.Latitude,
				Longitude: r.Location.Longitude,
			}
		}
		out.Regions = append(out.Regions, region)
	}
	return out, nil
}

func parseDate(s string) (model.Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return model.Date{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	return model.Date{Time: t}, nil
}
