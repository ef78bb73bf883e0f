package db

import (
	"context"
	"log"
	"sync"

	"cloud.google.com/go/firestore"
)

// Event is one change notification pushed to live clients. It carries no
// payload; subscribers re-fetch the view they care about.
type Event struct {
	Collection string `json:"collection"`
	TrailerID  string `json:"trailerId,omitempty"`
}

func (db *FirestoreDB) watch(ctx context.Context, wg *sync.WaitGroup, ch chan<- Event, q firestore.Query, ev Event) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		it := q.Snapshots(ctx)
		defer it.Stop()
		for {
			if _, err := it.Next(); err != nil {
				if ctx.Err() == nil {
					log.Printf("Warning: snapshot listener for %s stopped: %v", ev.Collection, err)
				}
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// WatchCatalog streams change notifications for the global categories and
// equipment bank. The channel closes when ctx is cancelled. The first
// event fires as soon as the listeners attach.
func (db *FirestoreDB) WatchCatalog(ctx context.Context) <-chan Event {
	ch := make(chan Event, 8)
	var wg sync.WaitGroup

	db.watch(ctx, &wg, ch, db.client.Collection(collCategories).Query, Event{Collection: collCategories})
	db.watch(ctx, &wg, ch, db.client.Collection(collEquipements).Query, Event{Collection: collEquipements})

	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch
}

// WatchTrailer streams change notifications for one trailer's mirrors and
// repair rows. Item-level changes surface through the category listener
// indirectly; clients re-fetch the grouped view on any event.
func (db *FirestoreDB) WatchTrailer(ctx context.Context, trailerID string) <-chan Event {
	ch := make(chan Event, 8)
	var wg sync.WaitGroup

	db.watch(ctx, &wg, ch,
		db.trailerRef(trailerID).Collection(subCategories).Query,
		Event{Collection: subCategories, TrailerID: trailerID})
	db.watch(ctx, &wg, ch,
		db.reparationsRef(trailerID).Query,
		Event{Collection: subReparations, TrailerID: trailerID})

	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch
}
