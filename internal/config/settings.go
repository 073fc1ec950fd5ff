package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// UpstreamConfig selects and tunes the conversational voice provider.
type UpstreamConfig struct {
	Provider           string  `mapstructure:"provider"`
	Model              string  `mapstructure:"model"`
	APIKey             string  `mapstructure:"api_key"`
	Voice              string  `mapstructure:"voice"`
	Persona            string  `mapstructure:"persona"`
	ConnectTimeoutSecs int     `mapstructure:"connect_timeout_secs"`
	MaxConnectRetries  int     `mapstructure:"max_connect_retries"`
	RetryDelaySecs     int     `mapstructure:"retry_delay_secs"`
	InSampleRate       int     `mapstructure:"in_sample_rate"`
	OutSampleRate      int     `mapstructure:"out_sample_rate"`
	Temperature        float32 `mapstructure:"temperature"`
	TopP               float32 `mapstructure:"top_p"`
	TopK               float32 `mapstructure:"top_k"`
	MaxOutputTokens    int32   `mapstructure:"max_output_tokens"`
}

func (u UpstreamConfig) ConnectTimeout() time.Duration {
	return time.Duration(u.ConnectTimeoutSecs) * time.Second
}

func (u UpstreamConfig) RetryDelay() time.Duration {
	return time.Duration(u.RetryDelaySecs) * time.Second
}

// SessionConfig bounds relay buffering and session lifecycle.
type SessionConfig struct {
	QueueCapacity           int  `mapstructure:"queue_capacity"`
	DrainGraceMs            int  `mapstructure:"drain_grace_ms"`
	SendFailureLimit        int  `mapstructure:"send_failure_limit"`
	MaxSessionDurationMins  int  `mapstructure:"max_session_duration_mins"`
	OutFrameMs              int  `mapstructure:"out_frame_ms"`
	PingSecs                int  `mapstructure:"ping_secs"`
	AllowLocalAudioHardware bool `mapstructure:"allow_local_audio_hardware"`
}

func (s SessionConfig) DrainGrace() time.Duration {
	return time.Duration(s.DrainGraceMs) * time.Millisecond
}

func (s SessionConfig) MaxSessionDuration() time.Duration {
	return time.Duration(s.MaxSessionDurationMins) * time.Minute
}

func (s SessionConfig) PingInterval() time.Duration {
	return time.Duration(s.PingSecs) * time.Second
}

type Settings struct {
	Env      string         `mapstructure:"env"`
	Debug    bool           `mapstructure:"debug" default:"false"`
	Port     int            `mapstructure:"port"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Session  SessionConfig  `mapstructure:"session"`
}

func (s *Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func Load() (*Settings, error) {
	// Load settings from a configuration file or environment variables
	viper.SetConfigName("config_" + genEnv())
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")

	applyDefaults()

	// Keys never belong in the config file.
	_ = viper.BindEnv("upstream.api_key", "GEMINI_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func applyDefaults() {
	viper.SetDefault("port", 8000)

	viper.SetDefault("upstream.provider", "gemini")
	viper.SetDefault("upstream.model", "models/gemini-2.0-flash-live-001")
	viper.SetDefault("upstream.voice", "Puck")
	viper.SetDefault("upstream.connect_timeout_secs", 30)
	viper.SetDefault("upstream.max_connect_retries", 3)
	viper.SetDefault("upstream.retry_delay_secs", 1)
	viper.SetDefault("upstream.in_sample_rate", 16000)
	viper.SetDefault("upstream.out_sample_rate", 24000)
	viper.SetDefault("upstream.temperature", 0.7)
	viper.SetDefault("upstream.top_p", 0.95)
	viper.SetDefault("upstream.top_k", 40)
	viper.SetDefault("upstream.max_output_tokens", 8192)

	viper.SetDefault("session.queue_capacity", 32)
	viper.SetDefault("session.drain_grace_ms", 2000)
	viper.SetDefault("session.send_failure_limit", 3)
	viper.SetDefault("session.max_session_duration_mins", 30)
	viper.SetDefault("session.out_frame_ms", 200)
	viper.SetDefault("session.ping_secs", 15)
	viper.SetDefault("session.allow_local_audio_hardware", false)
}

func genEnv() string {
	_ = viper.BindEnv("env", "ENV")
	env := viper.GetString("env")
	if env == "" {
		return "dev"
	}
	return env
}
