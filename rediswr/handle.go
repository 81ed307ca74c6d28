package rediswr

import (
	"fmt"

	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/redq/store"
)

// FromHandle turns a user supplied connection object into a store.Store.
//
// A *Store or any other store.Store is returned as-is; a redis.UniversalClient is
// wrapped in namespace. Anything else, including nil, is rejected.
func FromHandle(handle any, namespace string) (store.Store, error) {
	switch h := handle.(type) {
	case *Store:
		if h == nil {
			break
		}
		return h, nil
	case store.Store:
		return h, nil
	case redis.UniversalClient:
		return NewStore(h, namespace), nil
	}

	return nil, errx.New("[rediswr]: not a valid redis connection",
		errx.WithCode(CodeInvalidStoreHandle),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"handle_type": fmt.Sprintf("%T", handle)}),
	)
}
