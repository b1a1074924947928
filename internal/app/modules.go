package app

import (
	"net/http"
	"time"

	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/modules/csv_source"
	"github.com/vk/gridflow/modules/filter"
	"github.com/vk/gridflow/modules/group_by"
	"github.com/vk/gridflow/modules/http_source"
	"github.com/vk/gridflow/modules/inline_source"
	"github.com/vk/gridflow/modules/json_source"
	"github.com/vk/gridflow/modules/preview"
	"github.com/vk/gridflow/modules/s3_upload"
	"github.com/vk/gridflow/modules/sorter"
)

// coreModules builds the definitive list of node modules compiled into
// the gridflow binary. Modules that reach the network share one pooled
// HTTP client.
func coreModules(httpTimeout time.Duration) []executor.Module {
	httpClient := &http.Client{
		Timeout: httpTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return []executor.Module{
		&csv_source.Module{},
		&json_source.Module{},
		&http_source.Module{Client: httpClient},
		&inline_source.Module{},
		&filter.Module{},
		&sorter.Module{},
		&group_by.Module{},
		&preview.Module{},
		&s3_upload.Module{Client: httpClient},
	}
}
