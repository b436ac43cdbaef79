package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// App is the process configuration, loaded from the environment (a .env file
// is read best-effort in main).
type App struct {
	Port string `envconfig:"PORT" default:"8080"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	JWTExpire time.Duration `envconfig:"JWT_EXPIRE" default:"24h"`

	GatewayBaseURL       string `envconfig:"GATEWAY_BASE_URL" default:"https://api.paygate.test"`
	GatewayKeyID         string `envconfig:"GATEWAY_KEY_ID"`
	GatewayKeySecret     string `envconfig:"GATEWAY_KEY_SECRET"`
	GatewayWebhookSecret string `envconfig:"GATEWAY_WEBHOOK_SECRET" required:"true"`

	HoldTimeout   time.Duration `envconfig:"HOLD_TIMEOUT" default:"15m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	DepositRate   float64       `envconfig:"DEPOSIT_RATE" default:"0.2"`
	Currency      string        `envconfig:"CURRENCY" default:"INR"`

	// Optional broker for state-change events; events are dropped when unset.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"booking.events"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
