package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath       string
	SessionID    int64
	OutputFile   string
	Format       ImageFormat
	Width        int
	Height       int
	MinTimestamp *time.Time
	MaxTimestamp *time.Time
	Verbose      bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format: ImagePNG,
		Width:  1200,
		Height: 800,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, from, to string
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.Int64Var(&c.SessionID, "s", 1, "Session ID")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.IntVar(&c.Width, "width", c.Width, "Image width in pixels")
	flag.IntVar(&c.Height, "height", c.Height, "Image height in pixels")
	flag.StringVar(&from, "from", "", "Only chart readings at or after this RFC3339 time")
	flag.StringVar(&to, "to", "", "Only chart readings at or before this RFC3339 time")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if c.Width < 400 || c.Height < 300 {
		err = fmt.Errorf("image size %dx%d too small", c.Width, c.Height)
	}

	if err == nil && from != "" {
		var ts time.Time
		if ts, err = time.Parse(time.RFC3339, from); err == nil {
			c.MinTimestamp = &ts
		}
	}
	if err == nil && to != "" {
		var ts time.Time
		if ts, err = time.Parse(time.RFC3339, to); err == nil {
			c.MaxTimestamp = &ts
		}
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
