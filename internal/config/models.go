package config

// EnvConfig is the process environment contract. Connection parameters follow
// the destination cluster's conventional variable names; CONFIG_FILE_PATH or
// CONFIG_CONTENT optionally provide a structured config instead, with the
// direct variables still applied on top.
type EnvConfig struct {
	DataPath    string `env:"DATA_PATH"`
	Table       string `env:"REDSHIFT_TABLE"`
	CreateTable string `env:"CREATE_TABLE" validate:"omitempty,filepath"`
	DBName      string `env:"REDSHIFT_DB_NAME"`
	Host        string `env:"REDSHIFT_HOST"`
	Port        int    `env:"REDSHIFT_PORT" validate:"omitempty,min=1,max=65535"`
	User        string `env:"REDSHIFT_USER"`
	Password    string `env:"REDSHIFT_PASSWORD"`
	SSLMode     string `env:"REDSHIFT_SSLMODE" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	ConfigFilePath string `env:"CONFIG_FILE_PATH" validate:"omitempty,filepath"`
	ConfigContent  string `env:"CONFIG_CONTENT"`
	ConfigFormat   string `env:"CONFIG_FORMAT"`
}

// Config is the resolved pipeline configuration.
type Config struct {
	Source      string     `yaml:"source" json:"source"`
	Table       string     `yaml:"table" json:"table"`
	CreateTable string     `yaml:"create_table" json:"create_table" validate:"omitempty,filepath"`
	Connection  ConnConfig `yaml:"connection" json:"connection"`
	Threshold   float64    `yaml:"threshold" json:"threshold" validate:"omitempty,gt=0"`
}

// ConnConfig carries the destination store connection parameters. Values may
// be absent; a run without them surfaces the store failure at load time.
type ConnConfig struct {
	DBName   string `yaml:"dbname" json:"dbname"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port" default:"5439" validate:"omitempty,min=1,max=65535"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	SSLMode  string `yaml:"sslmode" json:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}
