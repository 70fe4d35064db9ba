package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/scheduler"
	"github.com/wonny/vnequity/internal/scheduler/jobs"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "스냅샷 캐시 무효화 + 재적재",
	Long: `스냅샷 캐시(프로세스 + Redis)를 비우고 세 테이블을 다시 적재합니다.

새 분기 데이터가 업로드된 직후 실행합니다.
API 서버는 REFRESH_SCHEDULE 에 따라 같은 작업을 자동 실행합니다.

Example:
  go run ./cmd/vnequity refresh
  go run ./cmd/vnequity refresh --retries 3`,
	RunE: runRefresh,
}

var refreshRetries int

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().IntVar(&refreshRetries, "retries", 2, "retries on failure")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.log).WithRetry(refreshRetries, 5*time.Second)
	job := jobs.NewRefreshJob(a.memo, a.store, a.cfg.Data.RefreshSchedule, a.metrics, a.log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	result, err := sched.RunJobSync(ctx, job.Name())
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("refresh failed: %s", result.Error)
	}

	fields := [][2]string{
		{"Source", a.memo.Name()},
		{"Duration", result.Duration.Round(time.Millisecond).String()},
		{"Attempts", fmt.Sprintf("%d", result.Attempts)},
	}
	for _, kind := range contracts.AllKinds() {
		fields = append(fields, [2]string{string(kind), fmt.Sprintf("%d rows", result.Counts[string(kind)])})
	}
	PrintHeader("Snapshot Refresh", fields)
	PrintSuccess("Snapshots reloaded")
	return nil
}
