package oracle

import (
	"fmt"

	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/app/config"
	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
)

// NewFromConfig builds the configured oracle backend wrapped in the
// retry layer. The mock backend needs no credentials and replays an
// empty script, which makes dry runs deterministic.
func NewFromConfig(cfg config.Config, logger app.Logger) (output.OracleGateway, error) {
	var inner output.OracleGateway
	switch cfg.OracleType() {
	case "openai":
		if cfg.OracleAPIKey() == "" {
			return nil, fmt.Errorf("oracle backend openai requires an API key (OSSDEV_API_KEY or OPENAI_API_KEY)")
		}
		inner = NewOpenAIGateway(cfg.OracleAPIKey(), cfg.OracleModel())
	case "mock":
		inner = NewMockGateway(nil)
	default:
		return nil, fmt.Errorf("unknown oracle backend %q (want openai or mock)", cfg.OracleType())
	}
	return NewRetryingGateway(inner, cfg.RetryAttempts(), logger), nil
}
