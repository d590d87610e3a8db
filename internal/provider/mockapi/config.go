package mockapi

// Config contains mock API provider configuration. The key is read from the
// environment like any real provider credential; the provider rejects calls
// without one to mirror how a backed API would behave.
type Config struct {
	APIKey  string `env:"MOCK_API_KEY"`
	BaseURL string `env:"MOCK_API_BASE_URL" envDefault:"https://api.example.com/v1"`
}
