package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/services/export"
)

type Config struct {
	Port     string
	GRPCPort string

	DataDir        string
	PredictionFile string
	ComparisonFile string
	TZ             string

	TimeoutMs    int
	CBFails      int
	CBOpenMs     int
	CBIntervalMs int

	WarnDedupTTL  time.Duration
	HealthRefresh time.Duration

	// Sink opzionali: vuoti = disabilitati
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	MQTTHost      string
	MQTTPort      int
	MQTTUser      string
	MQTTPassword  string
	MQTTClientID  string
	TopicTemplate string

	LogLevel  string
	LogFormat string // json | console
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}
func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func loadConfig() Config {
	return Config{
		Port:     getenv("PORT", "8501"),
		GRPCPort: getenv("GRPC_PORT", "50051"),

		DataDir:        getenv("DATA_DIR", "."),
		PredictionFile: getenv("PREDICTION_FILE", "sample_predicted_pm.csv"),
		ComparisonFile: getenv("COMPARISON_FILE", "sample_comparison.csv"),
		TZ:             getenv("TZ", "Asia/Kolkata"),

		TimeoutMs:    getenvInt("TIMEOUT_MS", 2000),
		CBFails:      getenvInt("CB_FAILS", 3),
		CBOpenMs:     getenvInt("CB_OPEN_MS", 30000),
		CBIntervalMs: getenvInt("CB_INTERVAL_MS", 60000),

		WarnDedupTTL:  time.Duration(getenvInt("WARN_DEDUP_TTL_S", 300)) * time.Second,
		HealthRefresh: time.Duration(getenvInt("HEALTH_REFRESH_S", 10)) * time.Second,

		InfluxURL:    getenv("INFLUX_URL", ""),
		InfluxToken:  getenv("INFLUX_TOKEN", ""),
		InfluxOrg:    getenv("INFLUX_ORG", "pm25"),
		InfluxBucket: getenv("INFLUX_BUCKET", "dashboard"),

		MQTTHost:      getenv("MQTT_HOST", ""),
		MQTTPort:      getenvInt("MQTT_PORT", 1883),
		MQTTUser:      getenv("MQTT_USER", "guest"),
		MQTTPassword:  getenv("MQTT_PASSWORD", "guest"),
		MQTTClientID:  getenv("MQTT_CLIENT_ID", getenv("HOSTNAME", "pm25-dashboard")),
		TopicTemplate: getenv("EXPORT_TOPIC_TEMPLATE", export.DefaultTopicTemplate),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}
}
