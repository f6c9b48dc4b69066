package config

// TriageConfig represents the configuration for the triage service
type TriageConfig struct {
	Scorer              string
	RulesFile           string
	ModelPath           string
	MinTicketConfidence float64
	AckEnabled          bool
	SenderPolicy        bool
}

// IMAPConfig represents the configuration for the IMAP email source
type IMAPConfig struct {
	Server     string
	Port       int
	Username   string
	Password   string
	Folder     string
	SinceDays  int
	UnseenOnly bool
}

// SMTPConfig represents the configuration for the SMTP notifier
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// GetTriage returns the triage configuration
func (c *Config) GetTriage() TriageConfig {
	return TriageConfig{
		Scorer:              c.GetString("triage.scorer"),
		RulesFile:           c.GetString("triage.rules_file"),
		ModelPath:           c.GetString("triage.model_path"),
		MinTicketConfidence: c.GetFloat64("triage.min_ticket_confidence"),
		AckEnabled:          c.GetBool("triage.ack_enabled"),
		SenderPolicy:        c.GetBool("triage.sender_policy"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Server:     c.GetString("imap.server"),
		Port:       c.GetInt("imap.port"),
		Username:   c.GetString("imap.username"),
		Password:   c.GetString("imap.password"),
		Folder:     c.GetString("imap.folder"),
		SinceDays:  c.GetInt("imap.since_days"),
		UnseenOnly: c.GetBool("imap.unseen_only"),
	}
}

// GetSMTP returns the SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.GetString("smtp.host"),
		Port:     c.GetInt("smtp.port"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
	}
}
