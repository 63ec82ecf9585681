package mqtt

import (
	"fmt"
	"sort"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"gitlab.com/adam.stanek/livearchiver/pkg/channel"
	"gitlab.com/adam.stanek/livearchiver/pkg/utils"
)

// Connection - MQTT context
type Connection struct {
	Opts         Opts
	StateManager *channel.StateManager
}

// NewConnection - constructor
func NewConnection(opts Opts) *Connection {
	return &Connection{
		Opts: opts,
	}
}

// Run - runs the mqtt connection, reconnects until the context is canceled
func (conn *Connection) Run(manager *channel.StateManager, ctx utils.GracefulContext) {
	conn.StateManager = manager

	utils.RunWithPerseverance(func(attempt utils.AttemptContext) {
		runMqtt(conn, attempt)
	}, ctx, utils.PerseverenceOpts{
		RunnerID:       "mqtt",
		ResetThreshold: 2 * time.Second,
		Cooldown: []time.Duration{
			2 * time.Second,
			10 * time.Second,
			1 * time.Minute,
		},
	})
}

// Message - single topic update
type Message struct {
	Topic   string
	Payload string
}

// Messages - translates channel state into topic updates, only the keys present in the state are included
func Messages(prefix string, channelName string, state channel.State) []Message {
	values := state.AsMap()

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Message, 0, len(keys))
	for _, key := range keys {
		result = append(result, Message{
			Topic:   fmt.Sprintf("%v/channels/%v/%v", prefix, channelName, key),
			Payload: fmt.Sprintf("%v", values[key]),
		})
	}

	return result
}

func runMqtt(conn *Connection, attempt utils.AttemptContext) {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(conn.Opts.BrokerURL)
	opts.SetClientID(conn.Opts.ClientID)
	opts.SetUsername(conn.Opts.Username)
	opts.SetPassword(conn.Opts.Password)
	opts.SetCleanSession(false)

	client := MQTT.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Error().Str("broker_url", conn.Opts.BrokerURL).Err(token.Error()).Msg("Unable to connect to MQTT broker")
		attempt.Fail(token.Error())
		return
	}

	log.Info().Str("broker_url", conn.Opts.BrokerURL).Msg("Successfully connected to MQTT broker")

	unsubscribe := conn.StateManager.Subscribe(func(channelName string, state channel.State) {
		for _, msg := range Messages(conn.Opts.TopicPrefix, channelName, state) {
			token := client.Publish(msg.Topic, 0, false, msg.Payload)
			if token.Wait(); token.Error() != nil {
				log.Error().Err(token.Error()).Str("topic", msg.Topic).Msg("Unable to publish channel state update")
			}
		}
	})

	// Wait until interrupt signal is received
	<-attempt.Done()

	log.Debug().Msg("Closing MQTT connection on interrupt")
	unsubscribe()
	client.Disconnect(250)
}
