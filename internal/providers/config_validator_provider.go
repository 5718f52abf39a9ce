package providers

import (
	"errors"
	"flairhq/internal/structures"
	"fmt"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}

	if cv.conf.Storage.Events.Driver == "mongo" && cv.conf.Storage.Events.MongoURI == "" {
		return errors.New("invalid config: storage.events.mongoURI is required for the mongo driver")
	}
	if cv.conf.Archive.Enabled && (cv.conf.Archive.FilePath == "" || cv.conf.Archive.Interval <= 0) {
		return errors.New("invalid config: archive.filePath and archive.interval are required when archiving is enabled")
	}
	seen := make(map[string]struct{}, len(cv.conf.Flair.Definitions))
	for _, def := range cv.conf.Flair.Definitions {
		if def.Name == "" || def.Subject == "" {
			return errors.New("invalid config: every flair definition needs a name and a subject")
		}
		if _, dup := seen[def.Name]; dup {
			return fmt.Errorf("invalid config: flair %q defined twice", def.Name)
		}
		seen[def.Name] = struct{}{}
	}
	return nil
}
