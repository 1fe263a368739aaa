package domain

// Comic is one entry of the downloaded corpus. Immutable once downloaded;
// the ID is the image filename, which every store uses as its key.
type Comic struct {
	ID        string `json:"filename"`
	Title     string `json:"comic_title,omitempty"`
	AltText   string `json:"alt_text,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	LocalPath string `json:"local_path"`
}

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderOpenAI    Provider = "openai"
	ProviderXAI       Provider = "xai"
)

func (p Provider) String() string {
	return string(p)
}

func (p Provider) IsValid() bool {
	switch p {
	case ProviderAnthropic, ProviderGoogle, ProviderOpenAI, ProviderXAI:
		return true
	default:
		return false
	}
}

// ModelConfig describes one named model entry from models.yaml.
// Read-only during a run.
type ModelConfig struct {
	Name        string   `yaml:"-"`
	Provider    Provider `yaml:"provider"`
	Model       string   `yaml:"model"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature float64  `yaml:"temperature"`
}
