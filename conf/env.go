package conf

import "fmt"

// EnvironmentEnum deployment environment
type EnvironmentEnum int

const (
	LocalEnvironmentEnum EnvironmentEnum = iota
	DevEnvironmentEnum
	ProdEnvironmentEnum
	ExampleEnvironmentEnum
)

// SystemEnvironmentEnum environment selected by the -env flag
var SystemEnvironmentEnum = LocalEnvironmentEnum

// ConfigPath overrides the yaml path chosen from the environment when set
var ConfigPath string

func (e EnvironmentEnum) String() string {
	switch e {
	case DevEnvironmentEnum:
		return "dev"
	case ProdEnvironmentEnum:
		return "prod"
	case ExampleEnvironmentEnum:
		return "example"
	default:
		return "loc"
	}
}

// ParseEnvironment maps an -env flag value to its enum
func ParseEnvironment(env string) EnvironmentEnum {
	switch env {
	case "dev":
		return DevEnvironmentEnum
	case "prod":
		return ProdEnvironmentEnum
	case "example":
		return ExampleEnvironmentEnum
	default:
		return LocalEnvironmentEnum
	}
}

// GetYaml returns the config file for the current environment
func GetYaml() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	return fmt.Sprintf("./conf/conf_%s.yaml", SystemEnvironmentEnum)
}
