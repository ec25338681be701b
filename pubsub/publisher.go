package pubsub

import "sync"

type SubscriptionHandler[T any] interface {
	Subscribe(chan<- T)
	Unsubscribe(chan<- T)
	Close()
}

type Publisher[T any] interface {
	SubscriptionHandler[T]
	Publish(data T)
}

type pubSub[T any] struct {
	subscriptions map[chan<- T]struct{}
	sub           chan chan<- T
	unsub         chan chan<- T
	pub           chan T
	stop          chan struct{}
	closedOnce    sync.Once
}

func NewPublisher[T any]() Publisher[T] {
	p := &pubSub[T]{
		subscriptions: make(map[chan<- T]struct{}),
		sub:           make(chan chan<- T),
		unsub:         make(chan chan<- T),
		pub:           make(chan T, 64),
		stop:          make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *pubSub[T]) run() {
	for {
		select {
		case data := <-p.pub:
			for sub := range p.subscriptions {
				select {
				case sub <- data:
				case <-p.stop:
					return
				}
			}
		case ch := <-p.sub:
			p.subscriptions[ch] = struct{}{}
		case ch := <-p.unsub:
			delete(p.subscriptions, ch)
		case <-p.stop:
			return
		}
	}
}

// Publish hands data to every subscriber. Subscribers are expected to
// drain their channel until they unsubscribed.
func (p *pubSub[T]) Publish(data T) {
	select {
	case p.pub <- data:
	case <-p.stop:
	}
}

func (p *pubSub[T]) Subscribe(ch chan<- T) {
	select {
	case p.sub <- ch:
	case <-p.stop:
	}
}

func (p *pubSub[T]) Unsubscribe(ch chan<- T) {
	select {
	case p.unsub <- ch:
	case <-p.stop:
	}
}

func (p *pubSub[T]) Close() {
	p.closedOnce.Do(func() {
		close(p.stop)
	})
}
