package file

import "github.com/custodia-labs/usermgr/internal/core/domain"

// DefaultConfig returns the configuration used until a config file is
// written: a local development instance and a county / sub county /
// community health unit hierarchy.
func DefaultConfig() *domain.AppConfig {
	nameProperty := domain.ContactProperty{CSVName: "name", DocName: "name", Type: "name", Required: true}
	phoneProperty := domain.ContactProperty{CSVName: "phone", DocName: "phone", Type: "phone", Required: true}

	county := domain.HierarchyLevel{
		PropertyName: "county",
		FriendlyName: "County",
		ContactType:  "a_county",
		Required:     true,
	}
	subCounty := domain.HierarchyLevel{
		PropertyName: "sub_county",
		FriendlyName: "Sub County",
		ContactType:  "b_sub_county",
		Required:     true,
	}

	return &domain.AppConfig{
		Upload: domain.UploadConfig{BatchSize: domain.DefaultUploadBatchSize},
		Domains: []domain.AuthenticationInfo{
			{Friendly: "Local Development", Domain: "localhost:5988", UseHTTP: true},
		},
		ContactTypes: []domain.ContactType{
			{
				Name:        "b_sub_county",
				Friendly:    "Sub County",
				ContactType: "e_sub_county_manager",
				ContactRole: "sub_county_manager",
				UserRole:    []string{"sub_county_manager"},
				Hierarchy: []domain.HierarchyLevel{
					withLevel(county, 1),
				},
				PlaceProperties:   []domain.ContactProperty{nameProperty},
				ContactProperties: []domain.ContactProperty{nameProperty, phoneProperty},
			},
			{
				Name:                     "c_community_health_unit",
				Friendly:                 "Community Health Unit",
				ContactType:              "e_community_health_volunteer",
				ContactRole:              "chw",
				UserRole:                 []string{"community_health_assistant"},
				DeactivateUsersOnReplace: true,
				Hierarchy: []domain.HierarchyLevel{
					withLevel(subCounty, 1),
					withLevel(county, 2),
				},
				PlaceProperties: []domain.ContactProperty{
					nameProperty,
					{CSVName: "code", DocName: "code", Type: "string", Required: true},
				},
				ContactProperties: []domain.ContactProperty{nameProperty, phoneProperty},
			},
		},
	}
}

func withLevel(h domain.HierarchyLevel, level int) domain.HierarchyLevel {
	h.Level = level
	return h
}
