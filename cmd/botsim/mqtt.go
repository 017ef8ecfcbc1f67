/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/frc6135/botcore/sio"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// MQTTCouplings is an sio.Couplings for an MQTT client.  Driver
// station messages arrive on the input topics, and each Output is
// published to the output topic.
type MQTTCouplings struct {
	Client   mqtt.Client
	Quiesce  uint
	InTopics string
	OutTopic string

	// Quiet suppresses Reports in which nothing happened.
	Quiet bool

	InTimeout time.Duration

	logger   *zap.SugaredLogger
	incoming chan *sio.Msg
	outbound chan *sio.Output
	done     chan bool
	lost     sync.Once
	wg       sync.WaitGroup
	stop     context.CancelFunc
}

func NewMQTTCouplings(args []string, logger *zap.Logger) (*MQTTCouplings, *pflag.FlagSet) {
	var (
		fs = pflag.NewFlagSet("mq", pflag.ExitOnError)

		broker      = fs.String("broker", "tcp://localhost", "Broker hostname")
		port        = fs.Int("port", 1883, "Broker port")
		clientId    = fs.String("client-id", "botsim", "Client id")
		keepAlive   = fs.Int("keep-alive", 10, "Keep-alive in seconds")
		userName    = fs.String("user", "", "Username")
		password    = fs.String("password", "", "Password")
		willTopic   = fs.String("will-topic", "", "Optional will topic")
		willPayload = fs.String("will-payload", "", "Optional will message")
		willQoS     = fs.Int("will-qos", 0, "Optional will QoS")
		willRetain  = fs.Bool("will-retain", false, "Optional will retention")
		reconnect   = fs.Bool("reconnect", false, "Automatically attempt to reconnect")
		clean       = fs.Bool("clean", true, "Clean session")
		quiesce     = fs.Int("quiesce", 100, "Disconnection quiescence (in milliseconds)")

		certFilename = fs.String("cert", "", "Optional cert filename")
		keyFilename  = fs.String("key", "", "Optional key filename")
		insecure     = fs.Bool("insecure", false, "Skip broker cert checking")
		caFilename   = fs.String("cafile", "", "Optional CA cert filename")

		inTopics  = fs.String("in", "robot/ds", "Subscription topic(s) as TOPIC[:QOS],...")
		outTopic  = fs.String("out", "robot/out", "Output topic as TOPIC[:QOS]")
		quiet     = fs.Bool("quiet", false, "Suppress reports in which nothing happened")
		inTimeout = fs.Duration("in-timeout", time.Second, "Timeout for in-bound queuing")
	)

	if args == nil {
		return nil, fs
	}

	fs.Parse(args)

	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("mqtt").Sugar()

	mqtt.ERROR = zap.NewStdLog(logger.Named("paho"))

	opts := mqtt.NewClientOptions()

	opts.AddBroker(fmt.Sprintf("%s:%d", *broker, *port))
	opts.SetClientID(*clientId)
	opts.SetKeepAlive(time.Second * time.Duration(*keepAlive))

	opts.Username = *userName
	opts.Password = *password
	opts.AutoReconnect = *reconnect
	opts.CleanSession = *clean

	if *willTopic != "" {
		if *willPayload == "" {
			log.Fatal("will topic without payload")
		}
		opts.WillEnabled = true
		opts.WillTopic = *willTopic
		opts.WillPayload = []byte(*willPayload)
		opts.WillRetained = *willRetain
		opts.WillQos = byte(*willQoS)
	}

	tlsConf := &tls.Config{
		InsecureSkipVerify: *insecure,
	}

	if *caFilename != "" {
		rootCAs, _ := x509.SystemCertPool()
		if rootCAs == nil {
			rootCAs = x509.NewCertPool()
		}
		certs, err := os.ReadFile(filepath.Clean(*caFilename))
		if err != nil {
			log.Fatalf("couldn't read '%s': %s", *caFilename, err)
		}
		if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
			log.Warnf("no certs appended from %s, using system certs only", *caFilename)
		}
		tlsConf.RootCAs = rootCAs
	}

	if *keyFilename != "" {
		cert, err := tls.LoadX509KeyPair(*certFilename, *keyFilename)
		if err != nil {
			log.Fatal(err)
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	opts.SetTLSConfig(tlsConf)

	c := &MQTTCouplings{
		Quiesce:   uint(*quiesce),
		InTopics:  *inTopics,
		OutTopic:  *outTopic,
		Quiet:     *quiet,
		InTimeout: *inTimeout,

		logger:   log,
		incoming: make(chan *sio.Msg),
		outbound: make(chan *sio.Output),
		done:     make(chan bool),
	}

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
		if !*reconnect {
			c.lost.Do(func() { close(c.done) })
		}
	}

	c.Client = mqtt.NewClient(opts)

	return c, fs
}

// inHandler is a Paho publish handler for messages from the driver
// station topics.
func (c *MQTTCouplings) inHandler(ctx context.Context, client mqtt.Client, msg mqtt.Message) {
	c.logger.Debugf("incoming: %s %s", msg.Topic(), msg.Payload())

	m, err := sio.ParseMsg(msg.Payload())
	if err != nil {
		m = sio.BadMsg(fmt.Errorf("topic %s: %w", msg.Topic(), err))
	}

	to := time.NewTimer(c.InTimeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
		c.logger.Debugf("not forwarding due to ctx.Done()")
	case c.incoming <- m:
	case <-to.C:
		c.logger.Warnf("dropped message on %s due to stall", msg.Topic())
	}
}

// Start creates the MQTT session.
func (c *MQTTCouplings) Start(ctx context.Context) error {
	ctx, c.stop = context.WithCancel(ctx)

	c.logger.Infof("Attempting to connect to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	c.logger.Infof("Connected to broker")

	handler := func(client mqtt.Client, msg mqtt.Message) {
		c.inHandler(ctx, client, msg)
	}

	for _, topic := range strings.Split(c.InTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		c.logger.Infof("Subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, handler); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.outLoop(ctx); err != nil {
			c.logger.Errorf("outLoop: %v", err)
		}
	}()

	c.logger.Infof("Couplings started")

	return nil
}

// IO returns the channels that Start uses.
func (c *MQTTCouplings) IO(ctx context.Context) (chan *sio.Msg, chan *sio.Output, chan bool, error) {
	return c.incoming, c.outbound, c.done, nil
}

// outLoop publishes Outputs to the broker.
func (c *MQTTCouplings) outLoop(ctx context.Context) error {
	topic, qos := parseTopic(c.OutTopic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-c.outbound:
			if o == nil {
				return nil
			}
			if c.Quiet && o.Error == "" && o.Status == nil && o.Report != nil && o.Report.Quiet() {
				continue
			}
			js, err := json.Marshal(o)
			if err != nil {
				c.logger.Errorf("failed to marshal %#v", o)
				continue
			}
			token := c.Client.Publish(topic, qos, false, js)
			token.Wait()
			if err := token.Error(); err != nil {
				return fmt.Errorf("publish to %s: %w", topic, err)
			}
		}
	}
}

// Stop terminates the MQTT session.
func (c *MQTTCouplings) Stop(ctx context.Context) error {
	c.logger.Infof("Disconnecting")
	if c.stop != nil {
		c.stop()
	}
	c.wg.Wait()
	c.Client.Disconnect(c.Quiesce)
	return nil
}

// parseTopic extracts the QoS from a topic name of the form
// TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.ParseUint(s[i+1:], 10, 8)
	if err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}
