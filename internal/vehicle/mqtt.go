package vehicle

import (
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"log"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/tiiuae/motion_planning/internal/config"
)

const algorithm = "RS256"

var ErrTelemetryTimeout = errors.New("no connection to the flight controller bridge")

// Connect opens the MQTT session. When a private key is configured the
// password is a JWT signed with it.
func Connect(cfg config.MQTT) (mqtt.Client, error) {
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	serverAddress := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
	clientID := fmt.Sprintf("motion-planning/%s", cfg.DeviceID)
	log.Printf("address: %v, client ID: %v", serverAddress, clientID)

	opts := mqtt.NewClientOptions().
		AddBroker(serverAddress).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetProtocolVersion(4) // MQTT 3.1.1
	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if cfg.PrivateKey != "" {
		keyData, err := ioutil.ReadFile(cfg.PrivateKey)
		if err != nil {
			return nil, errors.WithMessage(err, "Could not read private key")
		}
		pass, err := createPassword(keyData, cfg.Audience, time.Now())
		if err != nil {
			return nil, err
		}
		opts.SetPassword(pass)
	}

	client := mqtt.NewClient(opts)
	log.Printf("Connecting MQTT...")
	tok := client.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, errors.WithMessagef(ErrTelemetryTimeout, "%s after %v", serverAddress, cfg.Timeout)
	}
	if err := tok.Error(); err != nil {
		return nil, errors.WithMessagef(ErrTelemetryTimeout, "%s: %v", serverAddress, err)
	}
	log.Printf("..Connected")

	return client, nil
}

// createPassword signs a day long JWT for the broker.
func createPassword(keyData []byte, audience string, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return "", errors.WithMessage(err, "Could not parse private key")
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(algorithm), &jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(24 * time.Hour).Unix(),
		Audience:  audience,
	})
	pass, err := token.SignedString(key)
	if err != nil {
		return "", errors.WithMessage(err, "Could not sign password")
	}

	return pass, nil
}
