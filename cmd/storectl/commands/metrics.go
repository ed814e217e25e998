package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coldvault/core/internal/cliout"
	"github.com/coldvault/core/pkg/transport/httpapi"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show a bucket's storage metrics",
	RunE:  runMetrics,
}

func runMetrics(cmd *cobra.Command, args []string) error {
	var resp httpapi.BucketMetricsResponse
	if err := apiCall(context.Background(), "GET", bucketURL, "/api/v1/metrics", nil, &resp); err != nil {
		return fmt.Errorf("fetch metrics: %w", err)
	}

	table := cliout.NewTableData("METRIC", "VALUE")
	table.AddRow("files", strconv.Itoa(resp.FileCount))
	table.AddRow("pending files", strconv.Itoa(resp.PendingFileCount))
	table.AddRow("distinct blobs", strconv.Itoa(resp.BlobCount))
	table.AddRow("bytes used", strconv.FormatUint(resp.BytesUsed, 10))
	table.AddRow("data limit bytes", strconv.FormatUint(resp.DataLimitBytes, 10))

	return cliout.PrintTable(os.Stdout, table)
}
