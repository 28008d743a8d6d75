package notifyassessmentresult

import "time"

type Config struct {
	Timeout     time.Duration
	AWSRegion   string
	SenderEmail string
	SMSEnabled  bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   20 * time.Second,
		AWSRegion: "ap-southeast-1",
	}
}
