package schema

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Defaults returns a new Settings holding the default of every field. Each
// call allocates fresh slices and maps.
func Defaults() *Settings {
	return &Settings{
		API: API{
			Host:             "0.0.0.0",
			Port:             8000,
			Debug:            false,
			RequestTimeout:   30,
			MaxContentLength: 10 << 20,
		},
		Search: Search{
			Engines:    []string{"google", "bing"},
			MaxResults: 20,
			Timeout:    10,
			Google:     GoogleSearch{Country: "us"},
			Bing:       BingSearch{Country: "us"},
		},
		Scraping: Scraping{
			Timeout: 30,
			Retry: Retry{
				MaxRetries:      3,
				BackoffFactor:   2.0,
				StatusForcelist: []int{429, 500, 502, 503, 504},
			},
			UserAgents:        []string{defaultUserAgent},
			RespectRobotsTxt:  true,
			JavascriptEnabled: true,
			WaitForSelectors:  true,
			WaitTime:          5.0,
			ScrollBehavior: ScrollBehavior{
				Enabled:    true,
				MaxScrolls: 5,
				WaitTime:   1.5,
			},
		},
		AntiBot: AntiBot{
			Proxies:            []string{},
			RotateUserAgents:   true,
			MimicHumanBehavior: true,
		},
		RateLimiting: RateLimiting{
			Enabled:           true,
			RequestsPerMinute: 10,
			DomainSpecific:    map[string]int{},
		},
		ML: ML{
			ContentExtraction: ContentExtraction{Threshold: 0.7},
			QueryProcessing:   QueryProcessing{MaxTokens: 1024},
		},
		Database: Database{
			URL:         "sqlite:///dataprowler.db",
			PoolSize:    5,
			MaxOverflow: 10,
		},
		Logging: Logging{
			Level:  "INFO",
			Format: "json",
		},
		Cache: Cache{
			Enabled: true,
			Type:    "memory",
			TTL:     3600,
			MaxSize: 1000,
			Redis: RedisCache{
				Host: "localhost",
				Port: 6379,
			},
			Filesystem: FilesystemCache{Path: ".cache"},
		},
		Performance: Performance{
			MaxWorkers: 4,
			Timeout:    60,
		},
		Features: Features{
			UseMLProcessing:       true,
			AdvancedExtraction:    true,
			SiteStructureLearning: true,
		},
	}
}
