package nav

import "ArtistStudio/model"

// Route identifiers referenced by the HTTP layer.
const (
	RouteDashboard = "home.dashboard"
	RouteArtists   = "home.artists"
	RouteNewArtist = "home.new_artist"
	RouteUpload    = "home.upload"
	RouteTracks    = "home.tracks"
	RouteMetrics   = "home.metrics"
	RouteAdmin     = "admin"
)

// Default returns the built-in navigation. Each call returns a fresh copy.
func Default() Config {
	return Config{
		Permissions: map[model.Role][]string{
			model.RoleAdmin:  {"home", "admin", "account"},
			model.RoleLabel:  {"home", "account"},
			model.RoleArtist: {"home", "account"},
			model.RoleUser:   {"account"},
		},
		Routes: []model.RouteDescriptor{
			{
				ID: "home", Title: "Home", Icon: "home", URL: "/dashboard",
				Children: []model.RouteDescriptor{
					{ID: RouteDashboard, Title: "Dashboard", Icon: "layout-dashboard", URL: "/dashboard"},
					{ID: RouteArtists, Title: "Artists", Icon: "mic", URL: "/dashboard/artists"},
					{ID: RouteNewArtist, Title: "New artist", Icon: "user-plus", URL: "/dashboard/artists/new",
						Roles: []model.Role{model.RoleAdmin, model.RoleLabel}},
					{ID: RouteUpload, Title: "Upload", Icon: "upload", URL: "/dashboard/upload"},
					{ID: RouteTracks, Title: "Tracks", Icon: "music", URL: "/dashboard/tracks"},
					{ID: RouteMetrics, Title: "Metrics", Icon: "chart-line", URL: "/dashboard/metrics"},
				},
			},
			{
				ID: RouteAdmin, Title: "Administration", Icon: "shield", URL: "/admin",
				Children: []model.RouteDescriptor{
					{ID: "admin.users", Title: "Users", Icon: "users", URL: "/admin/users"},
					{ID: "admin.uploads", Title: "Uploads", Icon: "hard-drive", URL: "/admin/uploads"},
				},
			},
			{
				ID: "account", Title: "Account", Icon: "user", URL: "/account",
				Children: []model.RouteDescriptor{
					{ID: "account.profile", Title: "Profile", Icon: "id-card", URL: "/account/profile"},
					{ID: "account.security", Title: "Security", Icon: "lock", URL: "/account/security"},
					{ID: "account.payouts", Title: "Payouts", Icon: "wallet", URL: "/account/payouts",
						Roles: []model.Role{model.RoleArtist, model.RoleLabel}},
				},
			},
		},
	}
}
