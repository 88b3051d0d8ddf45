package source

import (
	"fmt"
	"os"

	"github.com/nvkalinin/month-grid/store"
	"gopkg.in/yaml.v3"
)

// Override берет данные из YAML-файла вида год -> месяц -> число -> день.
type Override struct {
	Path string
}

type overrides map[int]store.Months // Ключ — год.

func (o *Override) GetYear(y int) (store.Months, error) {
	// Файл могут менять без перезапуска, поэтому читаем его при каждом вызове.
	f, err := os.ReadFile(o.Path)
	if err != nil {
		return nil, fmt.Errorf("source/override cannot read %s: %w", o.Path, err)
	}

	ov := overrides{}
	if err := yaml.Unmarshal(f, &ov); err != nil {
		return nil, fmt.Errorf("source/override cannot parse %s: %w", o.Path, err)
	}

	return ov[y], nil
}
