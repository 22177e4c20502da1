package ledger

import (
	"context"

	"github.com/sirupsen/logrus"
)

// logger binds ctx so logrus hooks can read request values
func logger(ctx context.Context) *logrus.Entry {
	return logrus.WithContext(ctx)
}
