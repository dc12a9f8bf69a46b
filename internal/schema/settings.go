package schema

// Settings is the root of the validated settings tree. Field tags name the
// raw map keys (mapstructure) and the semantic rules checked after decoding
// (validate).
type Settings struct {
	API          API          `mapstructure:"api"`
	Search       Search       `mapstructure:"search"`
	Scraping     Scraping     `mapstructure:"scraping"`
	AntiBot      AntiBot      `mapstructure:"anti_bot"`
	RateLimiting RateLimiting `mapstructure:"rate_limiting"`
	ML           ML           `mapstructure:"ml"`
	Database     Database     `mapstructure:"database"`
	Logging      Logging      `mapstructure:"logging"`
	Cache        Cache        `mapstructure:"cache"`
	Performance  Performance  `mapstructure:"performance"`
	Features     Features     `mapstructure:"features"`
}

// API configures the HTTP server.
type API struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Debug            bool   `mapstructure:"debug"`
	RequestTimeout   int    `mapstructure:"request_timeout"`
	MaxContentLength int    `mapstructure:"max_content_length"`
}

// Search selects the engines queried and their credentials.
type Search struct {
	Engines    []string     `mapstructure:"engines" validate:"dive,oneof=google bing duckduckgo"`
	MaxResults int          `mapstructure:"max_results"`
	Timeout    int          `mapstructure:"timeout"`
	Google     GoogleSearch `mapstructure:"google"`
	Bing       BingSearch   `mapstructure:"bing"`
}

type GoogleSearch struct {
	APIKey  string `mapstructure:"api_key"`
	CX      string `mapstructure:"cx"`
	Country string `mapstructure:"country"`
}

type BingSearch struct {
	APIKey  string `mapstructure:"api_key"`
	Country string `mapstructure:"country"`
}

// Scraping holds page fetching behaviour. Retry values are consumed by the
// fetcher; nothing here retries.
type Scraping struct {
	Timeout           int            `mapstructure:"timeout"`
	Retry             Retry          `mapstructure:"retry"`
	UserAgents        []string       `mapstructure:"user_agents"`
	RespectRobotsTxt  bool           `mapstructure:"respect_robots_txt"`
	JavascriptEnabled bool           `mapstructure:"javascript_enabled"`
	WaitForSelectors  bool           `mapstructure:"wait_for_selectors"`
	WaitTime          float64        `mapstructure:"wait_time"`
	ScrollBehavior    ScrollBehavior `mapstructure:"scroll_behavior"`
}

type Retry struct {
	MaxRetries      int     `mapstructure:"max_retries"`
	BackoffFactor   float64 `mapstructure:"backoff_factor"`
	StatusForcelist []int   `mapstructure:"status_forcelist"`
}

type ScrollBehavior struct {
	Enabled    bool    `mapstructure:"enabled"`
	MaxScrolls int     `mapstructure:"max_scrolls"`
	WaitTime   float64 `mapstructure:"wait_time"`
}

type AntiBot struct {
	UseProxies         bool     `mapstructure:"use_proxies"`
	Proxies            []string `mapstructure:"proxies"`
	RotateUserAgents   bool     `mapstructure:"rotate_user_agents"`
	MimicHumanBehavior bool     `mapstructure:"mimic_human_behavior"`
	HandleCaptchas     bool     `mapstructure:"handle_captchas"`
	CaptchaService     string   `mapstructure:"captcha_service"`
	CaptchaAPIKey      string   `mapstructure:"captcha_api_key"`
}

// RateLimiting sets request budgets per minute. DomainSpecific overrides
// RequestsPerMinute for individual hosts.
type RateLimiting struct {
	Enabled           bool           `mapstructure:"enabled"`
	RequestsPerMinute int            `mapstructure:"requests_per_minute"`
	DomainSpecific    map[string]int `mapstructure:"domain_specific"`
}

type ML struct {
	ContentExtraction ContentExtraction `mapstructure:"content_extraction"`
	QueryProcessing   QueryProcessing   `mapstructure:"query_processing"`
}

type ContentExtraction struct {
	ModelPath string  `mapstructure:"model_path"`
	Threshold float64 `mapstructure:"threshold"`
}

type QueryProcessing struct {
	ModelPath string `mapstructure:"model_path"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type Database struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"pool_size"`
	MaxOverflow int    `mapstructure:"max_overflow"`
	Echo        bool   `mapstructure:"echo"`
}

// Logging configures the process logger. Format is "json" or "console".
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type Cache struct {
	Enabled    bool            `mapstructure:"enabled"`
	Type       string          `mapstructure:"type" validate:"oneof=memory redis filesystem"`
	TTL        int             `mapstructure:"ttl"`
	MaxSize    int             `mapstructure:"max_size"`
	Redis      RedisCache      `mapstructure:"redis"`
	Filesystem FilesystemCache `mapstructure:"filesystem"`
}

type RedisCache struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	DB   int    `mapstructure:"db"`
}

type FilesystemCache struct {
	Path string `mapstructure:"path"`
}

// Performance limits. MemoryLimit 0 means unlimited.
type Performance struct {
	MaxWorkers  int `mapstructure:"max_workers"`
	Timeout     int `mapstructure:"timeout"`
	MemoryLimit int `mapstructure:"memory_limit"`
}

type Features struct {
	UseMLProcessing       bool `mapstructure:"use_ml_processing"`
	AdvancedExtraction    bool `mapstructure:"advanced_extraction"`
	SiteStructureLearning bool `mapstructure:"site_structure_learning"`
}
