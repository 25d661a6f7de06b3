package core

// Environment selects runtime behavior that differs between local runs and
// deployments, currently just logging.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment maps a raw APP_ENV value to a known environment. Anything
// unrecognized runs as Development so a missing variable never blocks startup.
func ParseEnvironment(v string) Environment {
	switch Environment(v) {
	case Production:
		return Production
	case Testing:
		return Testing
	default:
		return Development
	}
}
