package main

import (
	"errors"
	"time"

	"github.com/centerhub/billing/pkg/adminauth"
	"github.com/centerhub/billing/pkg/billingapi"
	"github.com/centerhub/billing/pkg/config"
	"github.com/centerhub/billing/pkg/httpserver"
	"github.com/centerhub/billing/pkg/pg"
	"github.com/centerhub/billing/pkg/redis"
	"github.com/centerhub/billing/pkg/sweeper"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"` // Overrides the environment default when set.

	// PlanLimitsFile switches the plan table to a read-only YAML file instead of the database.
	PlanLimitsFile   string        `env:"PLAN_LIMITS_FILE"`
	PlanCacheTTL     time.Duration `env:"PLAN_CACHE_TTL" envDefault:"5m"`
	BreachDetection  bool          `env:"BREACH_DETECTION" envDefault:"true"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"billing"`
}

type settings struct {
	App     appConfig
	DB      pg.Config
	Redis   redis.Config
	HTTP    httpserver.Config
	API     billingapi.Config
	Admin   adminauth.Config
	Sweeper sweeper.Config
}

func loadSettings() (settings, error) {
	var s settings
	err := errors.Join(
		config.Load(&s.App),
		config.Load(&s.DB),
		config.Load(&s.Redis),
		config.Load(&s.HTTP),
		config.Load(&s.API),
		config.Load(&s.Admin),
		config.Load(&s.Sweeper),
	)
	return s, err
}
