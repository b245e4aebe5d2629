package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestRepositoryNext(t *testing.T) {
	tests := map[string]struct {
		rows    *pgxmock.Rows
		err     error
		want    int64
		wantErr bool
	}{
		"first value":  {rows: pgxmock.NewRows([]string{"last_value"}).AddRow(int64(1)), want: 1},
		"increments":   {rows: pgxmock.NewRows([]string{"last_value"}).AddRow(int64(42)), want: 42},
		"store failure": {err: errors.New("conn reset"), wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exp := mock.ExpectQuery(`INSERT INTO display_sequence`).WithArgs("orders")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			got, err := NewRepository(mock).Next(context.Background(), "orders")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
