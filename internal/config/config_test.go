package config

import "testing"

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8000" {
			t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
		}
		if cfg.TargetSampleRate != 16000 {
			t.Errorf("TargetSampleRate = %d, want 16000", cfg.TargetSampleRate)
		}
		if !cfg.TTSCacheEnabled {
			t.Error("TTSCacheEnabled = false, want true")
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.S3.Bucket != "vocabulary-audio" {
			t.Errorf("S3.Bucket = %q, want vocabulary-audio", cfg.S3.Bucket)
		}
		if cfg.S3.Secure {
			t.Error("S3.Secure = true, want false")
		}
	})

	t.Run("env_vars", func(t *testing.T) {
		t.Setenv("TARGET_SAMPLE_RATE", "8000")
		t.Setenv("TTS_CACHE_ENABLED", "false")
		t.Setenv("S3_BUCKET", "other-bucket")
		t.Setenv("S3_SECURE", "true")

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.TargetSampleRate != 8000 {
			t.Errorf("TargetSampleRate = %d, want 8000", cfg.TargetSampleRate)
		}
		if cfg.TTSCacheEnabled {
			t.Error("TTSCacheEnabled = true, want false")
		}
		if cfg.S3.Bucket != "other-bucket" {
			t.Errorf("S3.Bucket = %q, want other-bucket", cfg.S3.Bucket)
		}
		if !cfg.S3.Secure {
			t.Error("S3.Secure = false, want true")
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":9999")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := Load(Overrides{
			EnvFile:   "nonexistent.env",
			HTTPAddr:  ":7070",
			LogLevel:  "debug",
			ModelPath: "/models/custom",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":7070" {
			t.Errorf("HTTPAddr = %q, want :7070", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.ModelPath != "/models/custom" {
			t.Errorf("ModelPath = %q, want /models/custom", cfg.ModelPath)
		}
	})
}

func TestS3Config_Scheme(t *testing.T) {
	if s := (S3Config{Secure: true}).Scheme(); s != "https" {
		t.Errorf("Scheme = %q, want https", s)
	}
	if s := (S3Config{}).Scheme(); s != "http" {
		t.Errorf("Scheme = %q, want http", s)
	}
}
