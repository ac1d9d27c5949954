package orders

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"anarchy.ttfm/straight/random"
	badger "github.com/dgraph-io/badger/v4"
)

const PaymentIdLength = 32

var (
	sequenceKey   = []byte("/sequences/orders")
	pendingPrefix = []byte("/pending/")
)

func OrderKey(id uint64) (key []byte) {
	return []byte(fmt.Sprintf("/orders/%020d", id))
}

func PaymentIdKey(paymentId string) (key []byte) {
	return []byte(fmt.Sprintf("/payment-ids/%s", paymentId))
}

func PendingKey(id uint64) (key []byte) {
	return []byte(fmt.Sprintf("%s%020d", pendingPrefix, id))
}

func encodeId(id uint64) (b []byte) {
	return binary.BigEndian.AppendUint64(nil, id)
}

func decodeId(b []byte) (id uint64, err error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid id length: %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Store persists orders in badger.
// Every order lives under /orders/<id>; /payment-ids/<pid> points to it and
// /pending/<id> exists while the order is not terminal
type Store struct {
	db       *badger.DB
	sequence *badger.Sequence
	logger   *slog.Logger
}

func NewStore(db *badger.DB, logger *slog.Logger) (s *Store, err error) {
	sequence, err := db.GetSequence(sequenceKey, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare order sequence: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	s = &Store{db: db, sequence: sequence, logger: logger}
	return s, nil
}

// Close returns the unused sequence lease. The database stays open
func (s *Store) Close() (err error) {
	return s.sequence.Release()
}

func (s *Store) nextId() (id uint64, err error) {
	id, err = s.sequence.Next()
	if err != nil {
		return 0, err
	}
	// Zero is never a valid order id
	return id + 1, nil
}

// Create assigns Id and PaymentId and stores the order
func (s *Store) Create(ctx context.Context, o *Order) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	o.Id, err = s.nextId()
	if err != nil {
		return fmt.Errorf("failed to get next order id: %w", err)
	}

	r := random.CryptoRand()
	err = s.db.Update(func(txn *badger.Txn) (err error) {
		for {
			o.PaymentId = random.Token(r, PaymentIdLength)
			_, err = txn.Get(PaymentIdKey(o.PaymentId))
			if errors.Is(err, badger.ErrKeyNotFound) {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to check payment id: %w", err)
			}
		}

		err = txn.Set(PaymentIdKey(o.PaymentId), encodeId(o.Id))
		if err != nil {
			return fmt.Errorf("failed to index payment id: %w", err)
		}
		return s.put(txn, o)
	})
	if err != nil {
		return fmt.Errorf("failed to add order to the database: %w", err)
	}

	o.MarkPersisted()
	return nil
}

func (s *Store) put(txn *badger.Txn, o *Order) (err error) {
	err = txn.Set(OrderKey(o.Id), o.Bytes())
	if err != nil {
		return fmt.Errorf("failed to set order: %w", err)
	}

	if o.Status.Terminal() {
		err = txn.Delete(PendingKey(o.Id))
		if err != nil {
			return fmt.Errorf("failed to delete pending key: %w", err)
		}
		return nil
	}

	err = txn.Set(PendingKey(o.Id), encodeId(o.Id))
	if err != nil {
		return fmt.Errorf("failed to add pending key: %w", err)
	}
	return nil
}

// Save overwrites a stored order
func (s *Store) Save(ctx context.Context, o *Order) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) (err error) {
		_, err = txn.Get(OrderKey(o.Id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to query existing order: %w", err)
		}
		return s.put(txn, o)
	})
	if err != nil {
		return fmt.Errorf("failed to save order %d: %w", o.Id, err)
	}

	o.MarkPersisted()
	return nil
}

func (s *Store) get(txn *badger.Txn, id uint64) (o Order, err error) {
	entry, err := txn.Get(OrderKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return o, ErrOrderNotFound
		}
		return o, fmt.Errorf("failed to query existing order: %w", err)
	}

	err = entry.Value(func(val []byte) (err error) {
		err = o.FromBytes(val)
		if err != nil {
			return fmt.Errorf("failed to unmarshal order: %w", err)
		}
		return nil
	})
	if err != nil {
		return o, fmt.Errorf("failed to retrieve value: %w", err)
	}
	return o, nil
}

// Find resolves ref. A ref matching nothing yields ErrOrderNotFound
func (s *Store) Find(ctx context.Context, ref Ref) (o Order, err error) {
	if err = ctx.Err(); err != nil {
		return o, err
	}

	err = s.db.View(func(txn *badger.Txn) (err error) {
		switch ref.Kind {
		case RefNumeric:
			o, err = s.get(txn, ref.Id)
			return err
		case RefPayment:
			entry, err := txn.Get(PaymentIdKey(ref.PaymentId))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return ErrOrderNotFound
				}
				return fmt.Errorf("failed to query payment id: %w", err)
			}

			var id uint64
			err = entry.Value(func(val []byte) (err error) {
				id, err = decodeId(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to retrieve order id: %w", err)
			}
			o, err = s.get(txn, id)
			return err
		default:
			return ErrOrderNotFound
		}
	})
	if err != nil {
		return o, fmt.Errorf("failed to find order %s: %w", ref, err)
	}
	return o, nil
}

// StreamPending streams every non terminal order.
// The orders channel must be consumed until closed
func (s *Store) StreamPending() (orders chan Order, err chan error) {
	orders = make(chan Order, 1_000)
	err = make(chan error, 1)
	go func() {
		defer close(orders)
		defer close(err)

		err <- s.db.View(func(txn *badger.Txn) (err error) {
			options := badger.DefaultIteratorOptions
			options.Prefix = pendingPrefix
			it := txn.NewIterator(options)
			defer it.Close()

			for it.Rewind(); it.ValidForPrefix(pendingPrefix); it.Next() {
				var id uint64
				err = it.Item().Value(func(val []byte) (err error) {
					id, err = decodeId(val)
					return err
				})
				if err != nil {
					// Keep going, one broken entry must not hide the others
					s.logger.Error("failed to retrieve pending order id", "key", string(it.Item().Key()), "error", err)
					continue
				}

				o, err := s.get(txn, id)
				if err != nil {
					s.logger.Error("failed to retrieve pending order", "id", id, "error", err)
					continue
				}

				orders <- o
			}
			return nil
		})
	}()
	return orders, err
}
