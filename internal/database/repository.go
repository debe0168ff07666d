package database

type FlatFinderRepository interface {
	Ping() error

	CreateIdentity(email, passwordHash string) (Identity, error)
	GetIdentityByEmail(email string) (Identity, error)
	UpdateIdentityPassword(identityId int, passwordHash string) error
	DeleteIdentity(identityId int) error

	CreateProfile(params CreateProfileParams) (User, error)
	GetProfile(userId int) (User, error)
	UpdateProfile(params UpdateProfileParams) (User, error)
	DeleteProfile(userId int) error
	ListProfiles() ([]User, error)
	GrantAdmin(userId int) error

	CreateFlat(params CreateFlatParams) (Flat, error)
	GetFlatByExternalId(externalId string) (Flat, error)
	ListFlats() ([]Flat, error)
	ListFlatsByOwner(ownerId int) ([]Flat, error)
	ListFavoriteFlats(userId int) ([]Flat, error)
	UpdateFlat(params UpdateFlatParams) (Flat, error)
	DeleteFlat(flatId int) error
	AddFavorite(flatId, userId int) error
	RemoveFavorite(flatId, userId int) error

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageByExternalId(externalId string) (Message, error)
	ListInbox(recipientId int) ([]Message, error)
	ListSent(senderId int) ([]Message, error)
	MarkMessageRead(messageId int) error
	DeleteMessage(messageId int) error
	UnreadCount(recipientId int) (int, error)
}
