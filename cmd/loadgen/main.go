// Command loadgen floods the backend with ride-finished events over Kafka.
// It registers riders and starts sessions through the HTTP API so that every
// produced event references a real session, then produces end-of-ride events
// at a configurable rate.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// RideResultEvent mirrors the consumer's message format
type RideResultEvent struct {
	SessionID      string  `json:"sessionId"`
	MaxSpeed       float64 `json:"maxSpeed"`
	TotalDistance  float64 `json:"totalDistance"`
	CompletionTime float64 `json:"completionTime"`
}

var riderPrefixes = []string{
	"Fixie", "Brakeless", "Messenger", "Track", "Alleycat", "Crit", "Keirin",
	"Sprint", "Cadence", "Skid", "Drift", "Gutter", "Curb", "Spoke", "Chain",
}

func riderName(idx int) string {
	prefix := riderPrefixes[idx%len(riderPrefixes)]
	return fmt.Sprintf("%s%d", prefix, idx/len(riderPrefixes)+1)
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func (c *apiClient) post(path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) registerRider(username string) (string, error) {
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	err := c.post("/api/users/register", map[string]string{"username": username}, &out)
	return out.User.ID, err
}

func (c *apiClient) startSession(userID string) (string, error) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	err := c.post("/api/game/start", map[string]string{"playerId": userID}, &out)
	return out.SessionID, err
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "ride-results", "Kafka topic")
	apiURL := flag.String("api", "http://localhost:3000", "Backend API base URL")
	totalRiders := flag.Int("riders", 100, "Number of riders to register")
	eventsPerSecond := flag.Int("rate", 50, "Events per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	log.Printf("registering %d riders via %s", *totalRiders, *apiURL)
	api := &apiClient{baseURL: strings.TrimRight(*apiURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	riders := make([]string, 0, *totalRiders)
	for i := 0; i < *totalRiders; i++ {
		id, err := api.registerRider(riderName(i))
		if err != nil {
			log.Fatalf("failed to register rider: %v", err)
		}
		riders = append(riders, id)
	}
	log.Printf("registered %d riders", len(riders))

	// Configure Sarama producer
	producerConfig := sarama.NewConfig()
	producerConfig.Producer.RequiredAcks = sarama.WaitForLocal
	producerConfig.Producer.Compression = sarama.CompressionSnappy
	producerConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, producerConfig)
	if err != nil {
		log.Fatalf("failed to create producer: %v", err)
	}
	defer producer.Close()

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	interval := time.Second / time.Duration(*eventsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	shutdown := func() {
		producer.AsyncClose()
		wg.Wait()
		log.Printf("done. sent: %d, errors: %d", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	log.Printf("producing %d events/sec to %s, Ctrl+C to stop", *eventsPerSecond, *topic)

	for {
		select {
		case <-sigChan:
			log.Println("shutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				log.Println("duration reached, shutting down...")
				shutdown()
				return
			}

			userID := riders[rand.Intn(len(riders))]
			sessionID, err := api.startSession(userID)
			if err != nil {
				log.Printf("failed to start session: %v", err)
				continue
			}

			event := RideResultEvent{
				SessionID:      sessionID,
				MaxSpeed:       10 + rand.Float64()*40,
				TotalDistance:  float64(rand.Intn(4000) + 500),
				CompletionTime: 30 + rand.Float64()*270,
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("failed to marshal event: %v", err)
				continue
			}

			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(event.SessionID),
				Value: sarama.ByteEncoder(data),
			}

		case <-statsTicker.C:
			log.Printf("sent: %d, errors: %d",
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
