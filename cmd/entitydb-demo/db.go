package main

import (
	"github.com/aodb/entitydb/internal/dbconfig"
	"github.com/aodb/entitydb/internal/kernel"
	"github.com/aodb/entitydb/internal/obs"
)

// entityDB wraps *kernel.DB with the single instance a CLI invocation of
// this process needs. Every subcommand below is a self-contained scenario
// rather than an operation against entity handles carried over from a
// previous invocation: the kernel is an in-memory, non-persistent database,
// so there is nothing for a second process to resume.
type entityDB struct {
	*kernel.DB
}

func newEntityDB(cfg dbconfig.Config, log *obs.Logger) (*entityDB, error) {
	d, err := kernel.New(cfg, kernel.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &entityDB{DB: d}, nil
}
