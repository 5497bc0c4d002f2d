package types

type Config struct {
	Chains        map[string]ChainConfig `yaml:"chains"`
	EnabledChains []string               `yaml:"enabled-chains"`
	Treasury      TreasurySettings       `yaml:"treasury"`
	Circle        CircleSettings         `yaml:"circle"`
	Payroll       PayrollSettings        `yaml:"payroll"`
	Mongo         MongoSettings          `yaml:"mongo"`
	Api           ApiSettings            `yaml:"api"`
}

type ConfigWrapper struct {
	Chains        map[string]map[string]any `yaml:"chains"`
	EnabledChains []string                  `yaml:"enabled-chains"`
	Treasury      TreasurySettings          `yaml:"treasury"`
	Circle        CircleSettings            `yaml:"circle"`
	Payroll       PayrollSettings           `yaml:"payroll"`
	Mongo         MongoSettings             `yaml:"mongo"`
	Api           ApiSettings               `yaml:"api"`
}

// TreasurySettings names the two chains an organisation treasury spans.
type TreasurySettings struct {
	SolChain  string `yaml:"sol-chain" json:"sol-chain"`
	BaseChain string `yaml:"base-chain" json:"base-chain"`
}

type CircleSettings struct {
	WalletsBaseURL     string    `yaml:"wallets-base-url" json:"wallets-base-url"`
	APIKey             string    `yaml:"api-key" json:"-"`
	EntitySecret       string    `yaml:"entity-secret" json:"-"`
	RequestTimeout     int       `yaml:"request-timeout" json:"request-timeout"`
	RequestsPerSecond  int       `yaml:"requests-per-second" json:"requests-per-second"`
	Fee                FeeConfig `yaml:"fee" json:"fee"`
	AttestationBaseURL string    `yaml:"attestation-base-url" json:"attestation-base-url"`
	FetchRetries       int       `yaml:"fetch-retries" json:"fetch-retries"`
	FetchRetryInterval int       `yaml:"fetch-retry-interval" json:"fetch-retry-interval"`
	AttestationTimeout int       `yaml:"attestation-timeout" json:"attestation-timeout"`
}

type PayrollSettings struct {
	Cron             string `yaml:"cron" json:"cron"`
	Timezone         string `yaml:"timezone" json:"timezone"`
	WorkerCount      int    `yaml:"worker-count" json:"worker-count"`
	EnforcePayDay    bool   `yaml:"enforce-pay-day" json:"enforce-pay-day"`
	TransferTimeout  int    `yaml:"transfer-timeout" json:"transfer-timeout"`
	TransferCacheTTL int    `yaml:"transfer-cache-ttl" json:"transfer-cache-ttl"`
}

type MongoSettings struct {
	URI      string `yaml:"uri" json:"-"`
	Database string `yaml:"database" json:"database"`
}

type ApiSettings struct {
	ListenAddress  string   `yaml:"listen-address" json:"listen-address"`
	TrustedProxies []string `yaml:"trusted-proxies" json:"trusted-proxies"`
}

// ChainConfig is the family specific section of a configured chain.
type ChainConfig interface {
	// Apply overlays the configured protocol parameters on the registry entry.
	Apply(info ChainInfo) ChainInfo

	// Chain builds the strategy for the resolved chain.
	Chain(info ChainInfo, provider WalletProvider) (Chain, error)
}
