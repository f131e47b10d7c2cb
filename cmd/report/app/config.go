package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

type Config struct {
	DBPath     string
	SessionID  int64
	OutputFile string
	Verbose    bool
}

func NewConfigFromCLI() (*Config, error) {
	c := &Config{}

	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the HTML report file. Omit to print the text summary only")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	if c.OutputFile != "" && !strings.HasSuffix(c.OutputFile, ".html") {
		c.OutputFile = fmt.Sprintf("%s.html", c.OutputFile)
	}
	return c, nil
}
