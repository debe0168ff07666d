// Package live pushes messaging updates to connected clients over
// WebSockets. Every subscription follows one strategy: whenever a user's
// feed may have changed, the full feed is re-queried and re-sent as a
// snapshot, regardless of whether the change came from this connection,
// another session, or an HTTP request.
package live

import (
	"log"
	"sync"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/messaging"
	"github.com/flatfinder/flat-finder/internal/stats"
)

type LiveServer struct {
	log   *log.Logger
	db    database.FlatFinderRepository
	stats stats.StatsProvider

	clients     map[*Client]struct{}
	userClients map[int]map[*Client]struct{}
	clientsLock sync.Mutex

	inboundChan    chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	refreshChan    chan int
	stop           chan struct{}
	done           chan struct{}
}

func NewLiveServer(logger *log.Logger, db database.FlatFinderRepository, sp stats.StatsProvider) (*LiveServer, error) {
	return &LiveServer{
		log:            logger,
		db:             db,
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		userClients:    make(map[int]map[*Client]struct{}),
		inboundChan:    make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		refreshChan:    make(chan int, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (ls *LiveServer) Run() {
	for {
		select {
		case client := <-ls.RegisterChan:
			ls.log.Printf("adding connection from %q", client.user.Email)
			ls.addClient(client)
			ls.stats.Incr(stats.ActiveConnections)
		case client := <-ls.deRegisterChan:
			ls.log.Printf("removing connection from %q", client.user.Email)
			ls.removeClient(client)
			ls.stats.Decr(stats.ActiveConnections)
		case msg := <-ls.inboundChan:
			switch {
			case msg.Subscribe != nil:
				ls.handleSubscribe(msg)
			case msg.Publish != nil:
				ls.handlePublish(msg)
			case msg.Read != nil:
				ls.handleRead(msg)
			}
		case userId := <-ls.refreshChan:
			ls.pushFeeds(userId)
		case <-ls.stop:
			close(ls.done)
			return
		}
	}
}

func (ls *LiveServer) RegisterClient(c *Client) {
	ls.RegisterChan <- c
}

// Refresh schedules a snapshot push for each user whose feeds may have
// changed. It never blocks; callers on the HTTP path fire and forget.
func (ls *LiveServer) Refresh(userIds ...int) {
	for _, id := range userIds {
		select {
		case ls.refreshChan <- id:
		default:
			ls.log.Printf("refresh channel full, dropping refresh for user %d", id)
		}
	}
}

func (ls *LiveServer) handleSubscribe(msg *ClientMessage) {
	for _, feed := range msg.Subscribe.Feeds {
		if feed != FeedInbox && feed != FeedSent {
			msg.client.queueMessage(ErrUnknownFeed(msg.Id, feed))
			return
		}
	}

	msg.client.setFeeds(msg.Subscribe.Feeds)
	msg.client.queueMessage(NoErrOK(msg.Id, map[string]any{
		"feeds": msg.Subscribe.Feeds,
	}))

	// initial snapshot so the client renders without waiting for a change
	for _, feed := range msg.Subscribe.Feeds {
		ls.pushFeedToClient(msg.client, feed)
	}
}

func (ls *LiveServer) handlePublish(msg *ClientMessage) {
	flat, err := ls.db.GetFlatByExternalId(msg.Publish.FlatId)
	if err != nil {
		msg.client.queueMessage(ErrFlatNotFound(msg.Id))
		return
	}

	if flat.OwnerId == msg.UserId {
		msg.client.queueMessage(ErrPermissionDenied(msg.Id))
		return
	}

	recipient, err := ls.db.GetProfile(flat.OwnerId)
	if err != nil {
		ls.log.Printf("failed to load recipient %d: %v", flat.OwnerId, err)
		msg.client.queueMessage(ErrInternalError(msg.Id))
		return
	}

	params, err := messaging.Compose(flat.Id, msg.client.user, recipient, msg.Publish.Content, Now())
	if err != nil {
		msg.client.queueMessage(ErrEmptyMessage(msg.Id))
		return
	}

	created, err := ls.db.CreateMessage(params)
	if err != nil {
		ls.log.Printf("failed to create message: %v", err)
		msg.client.queueMessage(ErrInternalError(msg.Id))
		return
	}

	msg.client.queueMessage(NoErrOK(msg.Id, map[string]any{
		"message_id": created.ExternalId,
	}))
	ls.stats.Incr(stats.MessagesDelivered)

	ls.pushFeeds(msg.UserId)
	ls.pushFeeds(recipient.Id)
}

func (ls *LiveServer) handleRead(msg *ClientMessage) {
	dbMsg, err := ls.db.GetMessageByExternalId(msg.Read.MessageId)
	if err != nil {
		msg.client.queueMessage(ErrMessageNotFound(msg.Id))
		return
	}

	if dbMsg.RecipientId != msg.UserId {
		msg.client.queueMessage(ErrPermissionDenied(msg.Id))
		return
	}

	if !dbMsg.Read {
		if err := ls.db.MarkMessageRead(dbMsg.Id); err != nil {
			ls.log.Printf("failed to mark message %d read: %v", dbMsg.Id, err)
			msg.client.queueMessage(ErrInternalError(msg.Id))
			return
		}
	}

	msg.client.queueMessage(NoErrOK(msg.Id, nil))
	ls.pushFeeds(msg.UserId)
}

// pushFeeds re-queries and re-sends every feed any of the user's
// connections subscribes to.
func (ls *LiveServer) pushFeeds(userId int) {
	for _, feed := range []string{FeedInbox, FeedSent} {
		clients := ls.subscribers(userId, feed)
		if len(clients) == 0 {
			continue
		}

		snapshot, err := ls.snapshotFeed(userId, feed)
		if err != nil {
			ls.log.Printf("failed to snapshot %s feed for user %d: %v", feed, userId, err)
			continue
		}

		for _, c := range clients {
			if c.queueMessage(snapshot) {
				ls.stats.Incr(stats.SnapshotsPushed)
			}
		}
	}
}

func (ls *LiveServer) pushFeedToClient(c *Client, feed string) {
	snapshot, err := ls.snapshotFeed(c.user.UserId, feed)
	if err != nil {
		ls.log.Printf("failed to snapshot %s feed for user %d: %v", feed, c.user.UserId, err)
		c.queueMessage(ErrInternalError(0))
		return
	}

	if c.queueMessage(snapshot) {
		ls.stats.Incr(stats.SnapshotsPushed)
	}
}

func (ls *LiveServer) snapshotFeed(userId int, feed string) (*ServerMessage, error) {
	var (
		dbMessages []database.Message
		unread     int
		err        error
	)

	switch feed {
	case FeedInbox:
		dbMessages, err = ls.db.ListInbox(userId)
		if err != nil {
			return nil, err
		}

		unread, err = ls.db.UnreadCount(userId)
		if err != nil {
			return nil, err
		}
	case FeedSent:
		dbMessages, err = ls.db.ListSent(userId)
		if err != nil {
			return nil, err
		}
	}

	return &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Snapshot: &Snapshot{
			Feed:     feed,
			Messages: messaging.ToApiMessages(dbMessages),
			Unread:   unread,
		},
	}, nil
}

func (ls *LiveServer) subscribers(userId int, feed string) []*Client {
	ls.clientsLock.Lock()
	defer ls.clientsLock.Unlock()

	var subs []*Client
	for c := range ls.userClients[userId] {
		if c.subscribedTo(feed) {
			subs = append(subs, c)
		}
	}

	return subs
}

func (ls *LiveServer) addClient(c *Client) {
	ls.clientsLock.Lock()
	defer ls.clientsLock.Unlock()

	ls.clients[c] = struct{}{}
	if ls.userClients[c.user.UserId] == nil {
		ls.userClients[c.user.UserId] = make(map[*Client]struct{})
	}
	ls.userClients[c.user.UserId][c] = struct{}{}
}

func (ls *LiveServer) removeClient(c *Client) {
	ls.clientsLock.Lock()
	defer ls.clientsLock.Unlock()

	delete(ls.clients, c)
	if userSet := ls.userClients[c.user.UserId]; userSet != nil {
		delete(userSet, c)
		if len(userSet) == 0 {
			delete(ls.userClients, c.user.UserId)
		}
	}
}

func (ls *LiveServer) Shutdown() {
	ls.log.Println("received shutdown signal")

	ls.clientsLock.Lock()
	for c := range ls.clients {
		c.stopClient()
	}
	ls.clientsLock.Unlock()

	close(ls.stop)

	<-ls.done
}
