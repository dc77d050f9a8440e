// Package config loads the nine named sections of Config,
// through spf13/viper so INI, YAML, JSON and environment overrides all
// work the same way, the way IshaanNene's webstalk loads its sectioned
// config through a *viper.Viper and mapstructure-tagged structs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type GeneralConfig struct {
	DBName     string `mapstructure:"dbname"`
	DBUser     string `mapstructure:"dbuser"`
	DBPassword string `mapstructure:"dbpassword"`
	DBHost     string `mapstructure:"dbhost"`
	DBPort     int    `mapstructure:"dbport"`
	LogLevel   string `mapstructure:"loglevel"`
	BaseURL    string `mapstructure:"baseurl"`
	UserAgent  string `mapstructure:"useragent"`
}

func (g GeneralConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", g.DBUser, g.DBPassword, g.DBHost, g.DBPort, g.DBName)
}

type SessionDayCheckerConfig struct {
	PrefetchLimit        int           `mapstructure:"prefetchlimit"`
	RequestTimeoutFactor time.Duration `mapstructure:"requesttimeoutfactor"`
	StartDate            string        `mapstructure:"startdate"`
	Offset               time.Duration `mapstructure:"offset"`
	SleepOnEmpty         time.Duration `mapstructure:"sleeponempty"`
}

type DateUrlGeneratorConfig struct {
	PrefetchLimit int           `mapstructure:"prefetchlimit"`
	SleepOnEmpty  time.Duration `mapstructure:"sleeponempty"`
}

type DownloaderConfig struct {
	Instances            int           `mapstructure:"instances"`
	Path                 string        `mapstructure:"path"`
	Extension            string        `mapstructure:"extension"`
	RequestTimeoutFactor time.Duration `mapstructure:"requesttimeoutfactor"`
	StopWaitSecs         time.Duration `mapstructure:"stopwaitsecs"`
	SleepOnEmpty         time.Duration `mapstructure:"sleeponempty"`
	SleepOnError         time.Duration `mapstructure:"sleeponerror"`
	RetryAttempts        int           `mapstructure:"retryattempts"`
	RetryBaseDelay       time.Duration `mapstructure:"retrybasedelay"`
	RetryJitter          time.Duration `mapstructure:"retryjitter"`
}

type TokenBucketWorkerConfig struct {
	InitialInterval time.Duration `mapstructure:"initialinterval"`
	MinInterval     time.Duration `mapstructure:"mininterval"`
	Window          time.Duration `mapstructure:"window"`
	QueueCapacity   int           `mapstructure:"queuecapacity"`
}

type PostProcessingSchedulerConfig struct {
	PrefetchLimit int           `mapstructure:"prefetchlimit"`
	SleepOnEmpty  time.Duration `mapstructure:"sleeponempty"`
}

type PostProcessingWorkerConfig struct {
	Instances int `mapstructure:"instances"`
}

type IndexerConfig struct {
	ESConnection string `mapstructure:"esconnection"`
	ESIndexname  string `mapstructure:"esindexname"`
}

type SupervisorConfig struct {
	StartTimeout time.Duration `mapstructure:"starttimeout"`
	StopTimeout  time.Duration `mapstructure:"stoptimeout"`
}

// Config is the top-level container for every named section.
type Config struct {
	General                 GeneralConfig                 `mapstructure:"general"`
	SessionDayChecker       SessionDayCheckerConfig        `mapstructure:"sessiondaychecker"`
	DateUrlGenerator        DateUrlGeneratorConfig         `mapstructure:"dateurlgenerator"`
	Downloader              DownloaderConfig               `mapstructure:"downloader"`
	TokenBucketWorker       TokenBucketWorkerConfig        `mapstructure:"tokenbucketworker"`
	PostProcessingScheduler PostProcessingSchedulerConfig  `mapstructure:"postprocessingscheduler"`
	PostProcessingWorker    PostProcessingWorkerConfig     `mapstructure:"postprocessingworker"`
	Indexer                 IndexerConfig                  `mapstructure:"indexer"`
	Supervisor              SupervisorConfig               `mapstructure:"supervisor"`
}

// Load reads configPath (INI/YAML/JSON, by extension) if non-empty,
// merges in PLENARYCRAWL_* environment overrides, and falls back to the
// registered defaults for anything unset — a missing config file still
// produces a runnable configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLENARYCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %v", ErrReadConfigFail, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParsingFail, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.dbhost", "localhost")
	v.SetDefault("general.dbport", 5432)
	v.SetDefault("general.dbname", "plenarycrawl")
	v.SetDefault("general.dbuser", "plenarycrawl")
	v.SetDefault("general.loglevel", "info")
	v.SetDefault("general.baseurl", "https://www.europarl.europa.eu/doceo/document")
	v.SetDefault("general.useragent", "plenarycrawl/1.0")

	v.SetDefault("sessiondaychecker.prefetchlimit", 100)
	v.SetDefault("sessiondaychecker.requesttimeoutfactor", 2*time.Second)
	v.SetDefault("sessiondaychecker.startdate", "1994-01-01")
	v.SetDefault("sessiondaychecker.offset", 30*24*time.Hour)
	v.SetDefault("sessiondaychecker.sleeponempty", 5*time.Second)

	v.SetDefault("dateurlgenerator.prefetchlimit", 100)
	v.SetDefault("dateurlgenerator.sleeponempty", 5*time.Second)

	v.SetDefault("downloader.instances", 4)
	v.SetDefault("downloader.path", "./data")
	v.SetDefault("downloader.extension", ".pdf")
	v.SetDefault("downloader.requesttimeoutfactor", 2*time.Second)
	v.SetDefault("downloader.stopwaitsecs", 10*time.Second)
	v.SetDefault("downloader.sleeponempty", 1*time.Second)
	v.SetDefault("downloader.sleeponerror", 2*time.Second)
	v.SetDefault("downloader.retryattempts", 3)
	v.SetDefault("downloader.retrybasedelay", 500*time.Millisecond)
	v.SetDefault("downloader.retryjitter", 250*time.Millisecond)

	v.SetDefault("tokenbucketworker.initialinterval", 200*time.Millisecond)
	v.SetDefault("tokenbucketworker.mininterval", 200*time.Millisecond)
	v.SetDefault("tokenbucketworker.window", 1*time.Second)
	v.SetDefault("tokenbucketworker.queuecapacity", 10)

	v.SetDefault("postprocessingscheduler.prefetchlimit", 100)
	v.SetDefault("postprocessingscheduler.sleeponempty", 2*time.Second)

	v.SetDefault("postprocessingworker.instances", 2)

	v.SetDefault("indexer.esconnection", "http://localhost:9200")
	v.SetDefault("indexer.esindexname", "plenarycrawl")

	v.SetDefault("supervisor.starttimeout", 3*time.Second)
	v.SetDefault("supervisor.stoptimeout", 10*time.Second)
}
