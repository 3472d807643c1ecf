package sablepay

import "strings"

// Environment is the SablePay environment a base URL points at.
type Environment string

const (
	EnvironmentSandbox Environment = "SANDBOX"
	EnvironmentLive    Environment = "LIVE"
	EnvironmentCustom  Environment = "CUSTOM"
)

// EnvironmentForBaseUrl labels a base URL. Sandbox hosts win over live ones.
func EnvironmentForBaseUrl(baseUrl string) Environment {
	switch {
	case strings.Contains(baseUrl, "sandbox"):
		return EnvironmentSandbox
	case strings.Contains(baseUrl, "api.sablepay"):
		return EnvironmentLive
	}
	return EnvironmentCustom
}

func (e Environment) String() string {
	return string(e)
}
