package billingapi

import "time"

type Config struct {
	TenantHeader       string        `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
	SubdomainSuffix    string        `env:"TENANT_SUBDOMAIN_SUFFIX"` // e.g. ".centerhub.uz"; empty disables subdomain resolution.
	RequestTimeout     time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes       int64         `env:"API_MAX_BODY_BYTES" envDefault:"65536"`
	ChangesPerMinute   int           `env:"API_PLAN_CHANGES_PER_MINUTE" envDefault:"10"` // Per tenant, 0 disables the limit.
	HealthCheckTimeout time.Duration `env:"API_HEALTHCHECK_TIMEOUT" envDefault:"2s"`
}
