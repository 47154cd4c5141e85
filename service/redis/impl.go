package redis

import (
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/mintybay/goapi/base/ctx"
	"github.com/mintybay/goapi/base/metrics"
)

const (
	// retTTLNoKey is the return value of TTL when the key does not exist
	retTTLNoKey = -2
)

type redImpl struct {
	name  string
	met   metrics.Service
	pools *Pools
}

// Pools represents different pool types
type Pools struct {
	Src *redis.Pool
}

// New redis pool
func New(name string, metrics metrics.Service, pools *Pools) Service {
	return &redImpl{
		name:  name,
		met:   metrics,
		pools: pools,
	}
}

func (r *redImpl) getConn(command string) (redis.Conn, error) {
	defer r.met.BumpTime("getconn.time", "cluster", r.name).End()

	pool := r.getPool(command)
	if pool == nil {
		return nil, ErrGapTime
	}

	conn := pool.Get()
	if err := conn.Err(); err != nil {
		r.met.BumpSum("getConn.err", 1, "cluster", r.name, "reason", err.Error())
		return nil, err
	}

	return conn, nil
}

func (r *redImpl) getPool(command string) *redis.Pool {
	return r.pools.Src
}

func (r *redImpl) connDo(context ctx.Ctx, commandName string, args ...interface{}) (interface{}, error) {
	conn, err := r.getConn(commandName)
	if err != nil {
		return nil, err
	}

	reply, err := conn.Do(commandName, args...)

	// Closing conn explicitly asap improves redigo's performance,
	// because the longer a connection is held the more connections the
	// pool needs to handle at the same time.
	if err := conn.Close(); err != nil {
		r.met.BumpSum("conn.Close.err", 1, "cluster", r.name)
	}
	return reply, err
}

func (r *redImpl) Get(context ctx.Ctx, key string) ([]byte, error) {
	defer r.met.BumpTime("cmd.time", "cluster", r.name, "cmd", "get").End()

	val, err := redis.Bytes(r.connDo(context, "GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	} else if err != nil {
		r.met.BumpSum("cmd.err", 1, "cluster", r.name, "cmd", "get")
		return nil, err
	}
	return val, nil
}

func (r *redImpl) Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error {
	defer r.met.BumpTime("cmd.time", "cluster", r.name, "cmd", "set").End()

	var err error
	if expire > 0 {
		_, err = r.connDo(context, "SET", key, val, "PX", int64(expire/time.Millisecond))
	} else {
		_, err = r.connDo(context, "SET", key, val)
	}
	if err != nil {
		r.met.BumpSum("cmd.err", 1, "cluster", r.name, "cmd", "set")
		return err
	}
	return nil
}

func (r *redImpl) Del(context ctx.Ctx, ks ...string) (int, error) {
	defer r.met.BumpTime("cmd.time", "cluster", r.name, "cmd", "del").End()

	args := make([]interface{}, len(ks))
	for i, k := range ks {
		args[i] = k
	}
	removed, err := redis.Int(r.connDo(context, "DEL", args...))
	if err != nil {
		r.met.BumpSum("cmd.err", 1, "cluster", r.name, "cmd", "del")
		return 0, err
	}
	return removed, nil
}

func (r *redImpl) Exists(context ctx.Ctx, key string) (bool, error) {
	defer r.met.BumpTime("cmd.time", "cluster", r.name, "cmd", "exists").End()

	exists, err := redis.Bool(r.connDo(context, "EXISTS", key))
	if err != nil {
		r.met.BumpSum("cmd.err", 1, "cluster", r.name, "cmd", "exists")
		return false, err
	}
	return exists, nil
}

func (r *redImpl) TTL(context ctx.Ctx, key string) (int, error) {
	defer r.met.BumpTime("cmd.time", "cluster", r.name, "cmd", "ttl").End()

	ttl, err := redis.Int(r.connDo(context, "TTL", key))
	if err != nil {
		r.met.BumpSum("cmd.err", 1, "cluster", r.name, "cmd", "ttl")
		return 0, err
	}
	if ttl == retTTLNoKey {
		return ttl, ErrNotFound
	}
	return ttl, nil
}

func (r *redImpl) Incrby(context ctx.Ctx, key string, val int) (int64, error) {
	defer r.met.BumpTime("cmd.time", "cluster", r.name, "cmd", "incrby").End()

	res, err := redis.Int64(r.connDo(context, "INCRBY", key, val))
	if err != nil {
		r.met.BumpSum("cmd.err", 1, "cluster", r.name, "cmd", "incrby")
		return 0, err
	}
	return res, nil
}
