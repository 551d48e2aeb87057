package adminauth

import "time"

type Config struct {
	Secret   string        `env:"ADMIN_JWT_SECRET,required"`
	Issuer   string        `env:"ADMIN_JWT_ISSUER" envDefault:"centerhub-billing"`
	TokenTTL time.Duration `env:"ADMIN_JWT_TTL" envDefault:"1h"` // Lifetime of tokens minted by Issue.
}
