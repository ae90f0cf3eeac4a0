package cli

import (
	"fmt"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"

	"github.com/roach88/reqlbridge/internal/config"
	"github.com/roach88/reqlbridge/internal/driver"
	"github.com/roach88/reqlbridge/internal/store"
)

// Connector opens a query executor for cfg and returns a function that
// releases it.
type Connector func(cfg config.Config) (r.QueryExecutor, func(), error)

// DialRethinkDB is the default Connector.
func DialRethinkDB(cfg config.Config) (r.QueryExecutor, func(), error) {
	session, err := driver.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return session, func() { session.Close() }, nil
}

// openDriver loads configuration, connects and optionally attaches a
// journal. The returned cleanup must be called when done.
func openDriver(opts *RootOptions, journalPath string) (*driver.Driver, func(), error) {
	cfg, err := config.Load(opts.fs())
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}

	connect := opts.Connect
	if connect == nil {
		connect = DialRethinkDB
	}
	exec, closeExec, err := connect(cfg)
	if err != nil {
		return nil, nil, err
	}

	driverOpts := driver.FromConfig(cfg)
	cleanup := closeExec

	if journalPath != "" {
		journal, err := store.Open(journalPath)
		if err != nil {
			closeExec()
			return nil, nil, &LoadError{Code: ErrCodeJournal, Message: fmt.Sprintf("opening journal: %v", err)}
		}
		driverOpts = append(driverOpts, driver.WithJournal(journal))
		cleanup = func() {
			journal.Close()
			closeExec()
		}
	}

	return driver.New(exec, driverOpts...), cleanup, nil
}
