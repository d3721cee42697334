package config

const (
	// DriverMySQL selects the gorm mysql driver.
	DriverMySQL = "mysql"
	// DriverPostgres selects the gorm postgres driver.
	DriverPostgres = "postgres"
	// DriverSQLite selects the pure go sqlite driver, meant for development.
	DriverSQLite = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Driver   string
	Path     string // sqlite file, ignored by the network drivers
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Debug    bool // log every statement through the gorm logger adapter
}
