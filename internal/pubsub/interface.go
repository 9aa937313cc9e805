package pubsub

type PubSubClient interface {
	SendMessage(topic string, data any) error
	Close()
}
