package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ReserveRequest is the reservation payload
type ReserveRequest struct {
	TaskID  string  `json:"taskId"`
	Seconds float64 `json:"seconds"`
}

// SettleRequest is the settlement payload
type SettleRequest struct {
	UsedSeconds float64 `json:"usedSeconds"`
}

// TestResult contains metrics for a single reserve/close round trip
type TestResult struct {
	Success      bool
	ResponseTime time.Duration
	StatusCode   int
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	InsufficientFunds  int
	FailedRequests     int
	TotalTime          time.Duration
	MinResponseTime    time.Duration
	MaxResponseTime    time.Duration
	TotalResponseTime  time.Duration
	ResponseTimes      []time.Duration
	ErrorCounts        map[string]int
	UserStats          map[string]int // Track jobs per user
	ScenarioStats      map[string]int // Track jobs per scenario
	Lock               sync.Mutex
}

// JobScenario defines one generation-job lifecycle to simulate
type JobScenario struct {
	Name        string // For stats tracking
	Seconds     float64
	UsedSeconds float64
	Outcome     string // settle, refund or abandon
}

func main() {

	// Define command line flags
	concurrency := flag.Int("c", 5, "Number of concurrent goroutines")
	totalJobs := flag.Int("n", 100, "Total number of generation jobs to simulate")
	userIDsStr := flag.String("u", "load-user-1,load-user-2,load-user-3", "Comma-separated list of user IDs to distribute load across")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	delayMs := flag.Int("delay", 100, "Delay between jobs in milliseconds")
	flag.Parse()

	// Parse user IDs
	var userIDs []string
	for _, id := range strings.Split(*userIDsStr, ",") {
		if id = strings.TrimSpace(id); id != "" {
			userIDs = append(userIDs, id)
		}
	}
	if len(userIDs) == 0 {
		userIDs = []string{"load-user-1"}
	}

	// Define job lifecycle scenarios. Abandoned jobs are left for the
	// stale-reservation sweeper, so they count as success here.
	scenarios := []JobScenario{
		{"Settle Exact", 5.0, 5.0, "settle"},
		{"Settle Short", 10.0, 6.5, "settle"},
		{"Settle Overrun", 5.0, 7.0, "settle"},
		{"Settle Tiny", 0.4, 0.2, "settle"},
		{"Fail Refund", 8.0, 0, "refund"},
		{"Abandon", 3.0, 0, "abandon"},
	}

	fmt.Printf("Load testing API across %d users: %v\n", len(userIDs), userIDs)
	fmt.Printf("Job scenarios: %d different lifecycles\n", len(scenarios))
	fmt.Printf("Concurrency: %d goroutines\n", *concurrency)
	fmt.Printf("Total jobs: %d\n", *totalJobs)
	fmt.Printf("Delay between jobs: %d ms\n", *delayMs)

	// Initialize test statistics
	stats := &TestStats{
		TotalRequests:   *totalJobs,
		MinResponseTime: time.Hour, // Start with a high value that will be replaced
		ErrorCounts:     make(map[string]int),
		ResponseTimes:   make([]time.Duration, 0, *totalJobs),
		UserStats:       make(map[string]int),
		ScenarioStats:   make(map[string]int),
	}

	for _, id := range userIDs {
		stats.UserStats[id] = 0
	}
	for _, scenario := range scenarios {
		stats.ScenarioStats[scenario.Name] = 0
	}

	// Channel to collect results
	results := make(chan TestResult, *totalJobs)

	// Channel to distribute work
	jobs := make(chan int, *totalJobs)

	// Start worker goroutines
	var wg sync.WaitGroup
	fmt.Println("Starting worker goroutines...")
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			worker(workerID, *baseURL, *delayMs, userIDs, scenarios, jobs, results, stats)
		}(i)
	}

	// Fill the jobs channel
	go func() {
		for i := 0; i < *totalJobs; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	// Collect results
	go func() {
		for result := range results {
			stats.Lock.Lock()
			if result.Success {
				stats.SuccessfulRequests++
			} else {
				stats.FailedRequests++
				errMsg := "unknown"
				if result.Error != nil {
					errMsg = result.Error.Error()
				}
				stats.ErrorCounts[errMsg]++
				if result.StatusCode == http.StatusPaymentRequired {
					stats.InsufficientFunds++
				}
			}

			stats.ResponseTimes = append(stats.ResponseTimes, result.ResponseTime)
			stats.TotalResponseTime += result.ResponseTime

			if result.ResponseTime < stats.MinResponseTime {
				stats.MinResponseTime = result.ResponseTime
			}
			if result.ResponseTime > stats.MaxResponseTime {
				stats.MaxResponseTime = result.ResponseTime
			}
			stats.Lock.Unlock()
		}
	}()

	// Start the timer
	startTime := time.Now()
	fmt.Println("Test running...")

	// Print progress periodically
	ticker := time.NewTicker(1 * time.Second)
	go func() {
		for range ticker.C {
			stats.Lock.Lock()
			completed := stats.SuccessfulRequests + stats.FailedRequests
			if completed > 0 {
				fmt.Printf("Progress: %d/%d jobs completed (%.1f%%)\n",
					completed, stats.TotalRequests, float64(completed)/float64(stats.TotalRequests)*100)
			}
			stats.Lock.Unlock()
		}
	}()

	// Wait for all workers to finish
	wg.Wait()
	close(results)
	ticker.Stop()

	stats.TotalTime = time.Since(startTime)

	printResults(stats)
}

func worker(id int, baseURL string, delayMs int, userIDs []string,
	scenarios []JobScenario, jobs <-chan int, results chan<- TestResult, stats *TestStats) {

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	for jobID := range jobs {
		if delayMs > 0 {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
		}

		userID := userIDs[rand.Intn(len(userIDs))]
		scenario := scenarios[rand.Intn(len(scenarios))]

		stats.Lock.Lock()
		stats.UserStats[userID]++
		stats.ScenarioStats[scenario.Name]++
		stats.Lock.Unlock()

		taskID := fmt.Sprintf("load-%d-%d-%d", id, jobID, rand.Intn(1000000))

		// Run the full lifecycle and measure the round trip
		startTime := time.Now()
		statusCode, err := runJob(client, baseURL, userID, taskID, scenario)
		responseTime := time.Since(startTime)

		result := TestResult{
			ResponseTime: responseTime,
			StatusCode:   statusCode,
		}
		if err != nil {
			result.Success = false
			result.Error = err
		} else {
			result.Success = true
		}

		results <- result
	}
}

// runJob reserves credits for one job, then settles, refunds or abandons the
// reservation per the scenario. Returns the last HTTP status seen.
func runJob(client *http.Client, baseURL, userID, taskID string, scenario JobScenario) (int, error) {
	reserveURL := fmt.Sprintf("%s/user/%s/reservation", baseURL, userID)
	statusCode, err := postJSON(client, reserveURL, ReserveRequest{TaskID: taskID, Seconds: scenario.Seconds})
	if err != nil {
		return statusCode, fmt.Errorf("reserve: %w", err)
	}

	switch scenario.Outcome {
	case "settle":
		settleURL := fmt.Sprintf("%s/reservation/%s/settle", baseURL, taskID)
		if statusCode, err = postJSON(client, settleURL, SettleRequest{UsedSeconds: scenario.UsedSeconds}); err != nil {
			return statusCode, fmt.Errorf("settle: %w", err)
		}
	case "refund":
		refundURL := fmt.Sprintf("%s/reservation/%s/refund", baseURL, taskID)
		if statusCode, err = postJSON(client, refundURL, nil); err != nil {
			return statusCode, fmt.Errorf("refund: %w", err)
		}
	case "abandon":
		// Leave the reservation open for the sweeper
	}

	return statusCode, nil
}

func postJSON(client *http.Client, url string, payload any) (int, error) {
	var body *bytes.Buffer
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewBuffer(jsonData)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP status code %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func printResults(stats *TestStats) {
	rawTps := float64(stats.SuccessfulRequests) / stats.TotalTime.Seconds()
	theoreticalTps := float64(stats.TotalRequests) / stats.TotalTime.Seconds()

	var avgResponseTime time.Duration
	if len(stats.ResponseTimes) > 0 {
		avgResponseTime = stats.TotalResponseTime / time.Duration(len(stats.ResponseTimes))
	}

	// Calculate percentiles
	var p50, p90, p95, p99 time.Duration
	if len(stats.ResponseTimes) > 0 {
		sortedTimes := make([]time.Duration, len(stats.ResponseTimes))
		copy(sortedTimes, stats.ResponseTimes)

		// Simple bubble sort (OK for small datasets)
		for i := 0; i < len(sortedTimes); i++ {
			for j := i + 1; j < len(sortedTimes); j++ {
				if sortedTimes[i] > sortedTimes[j] {
					sortedTimes[i], sortedTimes[j] = sortedTimes[j], sortedTimes[i]
				}
			}
		}

		p50 = sortedTimes[len(sortedTimes)*50/100]
		p90 = sortedTimes[len(sortedTimes)*90/100]
		p95 = sortedTimes[len(sortedTimes)*95/100]
		p99 = sortedTimes[len(sortedTimes)*99/100]
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Total Jobs:          %d\n", stats.TotalRequests)
	fmt.Printf("Successful Jobs:     %d (%.1f%%)\n", stats.SuccessfulRequests,
		float64(stats.SuccessfulRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("Failed Jobs:         %d (%.1f%%)\n", stats.FailedRequests,
		float64(stats.FailedRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("Out of Credits:      %d\n", stats.InsufficientFunds)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())

	fmt.Println("\n----------------- PERFORMANCE -----------------")
	fmt.Printf("Raw jobs/sec:         %.2f (successful jobs / total time)\n", rawTps)
	fmt.Printf("Theoretical jobs/sec: %.2f (if all jobs were successful)\n", theoreticalTps)

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Job:         %v\n", avgResponseTime)
	fmt.Printf("Minimum Job:         %v\n", stats.MinResponseTime)
	fmt.Printf("Maximum Job:         %v\n", stats.MaxResponseTime)
	fmt.Printf("P50:                 %v\n", p50)
	fmt.Printf("P90:                 %v\n", p90)
	fmt.Printf("P95:                 %v\n", p95)
	fmt.Printf("P99:                 %v\n", p99)

	// Print user distribution
	fmt.Println("\n----------------- USER DISTRIBUTION -----------------")
	totalUsers := 0
	for _, count := range stats.UserStats {
		totalUsers += count
	}
	for userID, count := range stats.UserStats {
		if count > 0 {
			fmt.Printf("%-15s: %d jobs (%.1f%%)\n", userID, count,
				float64(count)/float64(totalUsers)*100)
		}
	}

	// Print scenario distribution
	fmt.Println("\n----------------- SCENARIO DISTRIBUTION -----------------")
	totalScenarios := 0
	for _, count := range stats.ScenarioStats {
		totalScenarios += count
	}
	for scenario, count := range stats.ScenarioStats {
		if count > 0 {
			fmt.Printf("%-15s: %d jobs (%.1f%%)\n", scenario, count,
				float64(count)/float64(totalScenarios)*100)
		}
	}

	// Print error distribution if there were errors
	if stats.FailedRequests > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d (%.1f%%)\n", errMsg, count,
				float64(count)/float64(stats.TotalRequests)*100)
		}
	}

	fmt.Println("================================================")
}
