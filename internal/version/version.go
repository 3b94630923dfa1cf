package version

import "fmt"

// Заполняются при сборке через -ldflags:
//
//	go build -ldflags "-X .../internal/version.version=v1.2.3 ..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки бинаря.
func Info() (v, c, d string) { return version, commit, date }

// String возвращает метаданные сборки одной строкой для логов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
