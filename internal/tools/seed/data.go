package seed

import "github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"

type demoUser struct {
	user    domain.CreateUserInput
	profile domain.CreateProfileInput
	vip     bool
}

const demoPassword = "demo-password-123"

func demoUsers() []demoUser {
	return []demoUser{
		{
			user: domain.CreateUserInput{Email: "ada@example.com", Name: "Ada Lovelace", Password: demoPassword, Role: domain.UserRoleAdmin},
			profile: domain.CreateProfileInput{
				FirstName: "Ada", LastName: "Lovelace", Bio: "Analytical engine enthusiast",
				Address: &domain.Address{
					Street: "12 St James's Square", City: "London", State: "London", ZipCode: "SW1Y 4JH", Country: "UK",
					Location: &domain.GeoPoint{Lat: 51.5074, Lng: -0.1278},
				},
			},
			vip: true,
		},
		{
			user: domain.CreateUserInput{Email: "grace@example.com", Name: "Grace Hopper", Password: demoPassword, Role: domain.UserRoleModerator},
			profile: domain.CreateProfileInput{
				FirstName: "Grace", LastName: "Hopper", Phone: "+1-212-555-0100",
				Address: &domain.Address{
					Street: "350 5th Ave", City: "New York", State: "NY", ZipCode: "10118", Country: "USA",
					Location: &domain.GeoPoint{Lat: 40.7128, Lng: -74.0060},
				},
				Preferences: &domain.UserPreferences{Notifications: true, Newsletter: true, Theme: domain.ThemeDark},
			},
		},
		{
			user: domain.CreateUserInput{Email: "alan@example.com", Name: "Alan Turing", Password: demoPassword},
			profile: domain.CreateProfileInput{
				FirstName: "Alan", LastName: "Turing",
				Address: &domain.Address{
					Street: "Oxford Rd", City: "Manchester", State: "Greater Manchester", ZipCode: "M13 9PL", Country: "UK",
					Location: &domain.GeoPoint{Lat: 53.4808, Lng: -2.2426},
				},
			},
		},
		{
			user: domain.CreateUserInput{Email: "katherine@example.com", Name: "Katherine Johnson", Password: demoPassword},
			profile: domain.CreateProfileInput{
				FirstName: "Katherine", LastName: "Johnson",
				Address: &domain.Address{
					Street: "1 NASA Dr", City: "Hampton", State: "VA", ZipCode: "23666", Country: "USA",
					Location: &domain.GeoPoint{Lat: 37.0299, Lng: -76.3452},
				},
			},
		},
		{
			user: domain.CreateUserInput{Email: "linus@example.com", Name: "Linus Torvalds", Password: demoPassword},
			profile: domain.CreateProfileInput{
				FirstName: "Linus", LastName: "Torvalds",
				Address: &domain.Address{
					Street: "Broadway", City: "Brooklyn", State: "NY", ZipCode: "11211", Country: "USA",
					Location: &domain.GeoPoint{Lat: 40.7081, Lng: -73.9571},
				},
			},
		},
	}
}
