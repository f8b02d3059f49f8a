package config

type Config struct {
	Sync SyncConfig
}

type Secrets struct {
	BNPPERE  BNPPERESecrets
	Influx   InfluxSecrets
	SQL      SqlSecrets
	Airtable AirtableSecrets

	// Alternative to the SQL struct, designed to be used with a heroku style
	// DATABASE_URL env variable
	DatabaseURL string `env:"DATABASE_URL"`
}

type SyncConfig struct {
	UpdateFrequency string `json:"updateFrequency"`
	// Standalone skips the provider session login and reads cards and
	// operations from StandaloneFixture instead of the live API. Also
	// switched on by the EPARGNEOPS_STANDALONE env variable.
	Standalone        bool   `json:"standalone"`
	StandaloneFixture string `json:"standaloneFixture"`

	SQL struct {
		SyncDatabase      string
		AccountsTable     string
		TransactionsTable string
		HistoriesTable    string
	}

	Influx struct {
		Database            string
		BalancesMeasurement string
	}

	Airtable struct {
		BaseID    string `json:"airtableBaseId"`
		RunsTable string
	}
}

type BNPPERESecrets struct {
	Login    string `json:"login" env:"BNPPERE_LOGIN"`
	Password string `json:"password" env:"BNPPERE_PASSWORD"`
}

type InfluxSecrets struct {
	InfluxEndpoint string `env:"INFLUX_ENDPOINT"`
	InfluxUsername string `env:"INFLUX_USERNAME"`
	InfluxPassword string `env:"INFLUX_PASSWORD"`
}

type SqlSecrets struct {
	SqlHost     string `env:"SQL_HOST"`
	SqlUsername string `env:"SQL_USERNAME"`
	SqlPassword string `env:"SQL_PASSWORD"`
}

type AirtableSecrets struct {
	AirtableAPIKey string `json:"airtableApiKey" env:"AIRTABLE_API_KEY"`
}
