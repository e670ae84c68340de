package websocket

import (
	"errors"
	"testing"
	"time"
)

// TestWebSocketPackage is a meta-test to verify all components
func TestWebSocketPackage(t *testing.T) {
	// This test ensures the package compiles and basic structures work
	server := NewServer()
	if server == nil {
		t.Fatal("Failed to create WebSocket server")
	}

	hub := server.GetHub()
	if hub == nil {
		t.Fatal("Hub not initialized")
	}

	if hub.GetConnectionCount() != 0 {
		t.Errorf("Expected 0 connections, got %d", hub.GetConnectionCount())
	}

	roomManager := hub.GetRoomManager()
	if roomManager == nil {
		t.Fatal("Room manager not initialized")
	}

	if roomManager.Count() != 0 {
		t.Errorf("Expected 0 rooms, got %d", roomManager.Count())
	}

	// Test config
	config := hub.GetConfig()
	if config == nil {
		t.Fatal("Config not initialized")
	}

	// Test metrics
	metrics := hub.GetMetrics()
	if metrics == nil {
		t.Fatal("Metrics not initialized")
	}

	server.Shutdown()
}

// TestMessageTypes verifies all message types are defined
func TestMessageTypes(t *testing.T) {
	types := []MessageType{
		MessageTypeText,
		MessageTypeBinary,
		MessageTypeJSON,
		MessageTypeConnect,
		MessageTypeDisconnect,
		MessageTypeError,
		MessageTypeJoinRoom,
		MessageTypeLeaveRoom,
		MessageTypeBroadcast,
		MessageTypePing,
		MessageTypePong,
	}

	for _, msgType := range types {
		msg := NewMessage(msgType, "test")
		if msg.Type != msgType {
			t.Errorf("Message type mismatch: expected %s, got %s", msgType, msg.Type)
		}
	}
}

// TestErrorTypes verifies all error types are defined
func TestErrorTypes(t *testing.T) {
	errors := []error{
		ErrConnectionClosed,
		ErrInvalidMessage,
		ErrRoomNotFound,
		ErrConnectionNotFound,
		ErrRoomFull,
	}

	for _, err := range errors {
		if err == nil {
			t.Error("Error should not be nil")
		}
	}
}

// TestConfig tests configuration functionality
func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()
		if config == nil {
			t.Fatal("DefaultConfig returned nil")
		}

		// Verify default values
		if config.EnableHeartbeat != true {
			t.Errorf("Expected EnableHeartbeat to be true, got %v", config.EnableHeartbeat)
		}

		if config.EnableReconnection != true {
			t.Errorf("Expected EnableReconnection to be true, got %v", config.EnableReconnection)
		}

		if config.EnableMetrics != true {
			t.Errorf("Expected EnableMetrics to be true, got %v", config.EnableMetrics)
		}

		if config.MessageQueueSize != 256 {
			t.Errorf("Expected MessageQueueSize to be 256, got %d", config.MessageQueueSize)
		}

		if config.MessageQueueStrategy != QueueStrategyDropOldest {
			t.Errorf("Expected MessageQueueStrategy to be DropOldest, got %v", config.MessageQueueStrategy)
		}
	})

	t.Run("ConfigValidation", func(t *testing.T) {
		config := &Config{}
		err := config.Validate()
		if err != nil {
			t.Errorf("Validate returned error: %v", err)
		}

		// Check that validation sets defaults
		if config.HeartbeatInterval <= 0 {
			t.Error("HeartbeatInterval should be set to default")
		}

		if config.MessageQueueSize <= 0 {
			t.Error("MessageQueueSize should be set to default")
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		config := &Config{
			MaxConnectionsPerHub:  100,
			MaxConnectionsPerRoom: 50,
			EnableHeartbeat:       true,
			HeartbeatInterval:     10 * time.Second,
			MessageQueueSize:      512,
			MessageQueueStrategy:  QueueStrategyBlock,
		}

		hub := NewHubWithConfig(config)
		if hub == nil {
			t.Fatal("Failed to create hub with custom config")
		}

		if hub.config.MaxConnectionsPerHub != 100 {
			t.Errorf("Expected MaxConnectionsPerHub to be 100, got %d", hub.config.MaxConnectionsPerHub)
		}

		hub.Shutdown()
	})
}

// TestMetrics tests metrics functionality
func TestMetrics(t *testing.T) {
	t.Run("BasicMetrics", func(t *testing.T) {
		metrics := NewMetrics()
		if metrics == nil {
			t.Fatal("NewMetrics returned nil")
		}

		// Test connection metrics
		metrics.IncrementConnections()
		if metrics.GetActiveConnections() != 1 {
			t.Errorf("Expected 1 active connection, got %d", metrics.GetActiveConnections())
		}

		metrics.DecrementConnections()
		if metrics.GetActiveConnections() != 0 {
			t.Errorf("Expected 0 active connections, got %d", metrics.GetActiveConnections())
		}

		// Test message metrics
		metrics.IncrementMessagesSent(100)
		if metrics.GetMessagesSent() != 1 {
			t.Errorf("Expected 1 message sent, got %d", metrics.GetMessagesSent())
		}

		if metrics.GetBytesSent() != 100 {
			t.Errorf("Expected 100 bytes sent, got %d", metrics.GetBytesSent())
		}

		metrics.IncrementMessagesReceived(200)
		if metrics.GetMessagesReceived() != 1 {
			t.Errorf("Expected 1 message received, got %d", metrics.GetMessagesReceived())
		}

		if metrics.GetBytesReceived() != 200 {
			t.Errorf("Expected 200 bytes received, got %d", metrics.GetBytesReceived())
		}
	})

	t.Run("ErrorMetrics", func(t *testing.T) {
		metrics := NewMetrics()

		metrics.IncrementReadErrors()
		metrics.IncrementWriteErrors()
		metrics.IncrementHandlerErrors()

		if metrics.GetTotalErrors() != 3 {
			t.Errorf("Expected 3 total errors, got %d", metrics.GetTotalErrors())
		}
	})

	t.Run("HeartbeatMetrics", func(t *testing.T) {
		metrics := NewMetrics()

		metrics.IncrementMissedPongs()
		metrics.IncrementSuccessfulPongs()

		if metrics.GetMissedPongs() != 1 {
			t.Errorf("Expected 1 missed pong, got %d", metrics.GetMissedPongs())
		}

		if metrics.GetSuccessfulPongs() != 1 {
			t.Errorf("Expected 1 successful pong, got %d", metrics.GetSuccessfulPongs())
		}
	})

	t.Run("QueueMetrics", func(t *testing.T) {
		metrics := NewMetrics()

		metrics.IncrementQueueOverflows()
		metrics.IncrementDroppedMessages()

		if metrics.GetQueueOverflows() != 1 {
			t.Errorf("Expected 1 queue overflow, got %d", metrics.GetQueueOverflows())
		}

		if metrics.GetDroppedMessages() != 1 {
			t.Errorf("Expected 1 dropped message, got %d", metrics.GetDroppedMessages())
		}
	})

	t.Run("ConnectionMetrics", func(t *testing.T) {
		metrics := NewMetrics()

		metrics.RegisterConnection("conn1")
		metrics.IncrementConnectionMessagesSent("conn1", 100)
		metrics.IncrementConnectionMessagesReceived("conn1", 200)
		metrics.IncrementConnectionErrors("conn1")
		metrics.IncrementConnectionMissedPongs("conn1")

		connMetrics := metrics.GetConnectionMetrics("conn1")
		if connMetrics == nil {
			t.Fatal("Expected connection metrics, got nil")
		}

		if connMetrics.MessagesSent != 1 {
			t.Errorf("Expected 1 message sent, got %d", connMetrics.MessagesSent)
		}

		if connMetrics.BytesSent != 100 {
			t.Errorf("Expected 100 bytes sent, got %d", connMetrics.BytesSent)
		}

		if connMetrics.MessagesReceived != 1 {
			t.Errorf("Expected 1 message received, got %d", connMetrics.MessagesReceived)
		}

		if connMetrics.BytesReceived != 200 {
			t.Errorf("Expected 200 bytes received, got %d", connMetrics.BytesReceived)
		}

		if connMetrics.Errors != 1 {
			t.Errorf("Expected 1 error, got %d", connMetrics.Errors)
		}

		if connMetrics.MissedPongs != 1 {
			t.Errorf("Expected 1 missed pong, got %d", connMetrics.MissedPongs)
		}

		metrics.UnregisterConnection("conn1")
		if metrics.GetConnectionMetrics("conn1") != nil {
			t.Error("Expected connection metrics to be removed")
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		metrics := NewMetrics()

		metrics.IncrementConnections()
		metrics.IncrementMessagesSent(100)
		metrics.IncrementMessagesReceived(200)

		snapshot := metrics.GetSnapshot()
		if snapshot == nil {
			t.Fatal("GetSnapshot returned nil")
		}

		if snapshot.ActiveConnections != 1 {
			t.Errorf("Expected 1 active connection, got %d", snapshot.ActiveConnections)
		}

		if snapshot.MessagesSent != 1 {
			t.Errorf("Expected 1 message sent, got %d", snapshot.MessagesSent)
		}

		if snapshot.MessagesReceived != 1 {
			t.Errorf("Expected 1 message received, got %d", snapshot.MessagesReceived)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		metrics := NewMetrics()

		metrics.IncrementConnections()
		metrics.IncrementMessagesSent(100)

		metrics.Reset()

		if metrics.GetActiveConnections() != 0 {
			t.Error("Expected metrics to be reset")
		}

		if metrics.GetMessagesSent() != 0 {
			t.Error("Expected metrics to be reset")
		}
	})

	t.Run("EnableDisable", func(t *testing.T) {
		metrics := NewMetrics()

		if !metrics.IsEnabled() {
			t.Error("Metrics should be enabled by default")
		}

		metrics.Disable()
		if metrics.IsEnabled() {
			t.Error("Metrics should be disabled")
		}

		// Operations should not affect metrics when disabled
		metrics.IncrementConnections()
		if metrics.GetActiveConnections() != 0 {
			t.Error("Metrics should not be updated when disabled")
		}

		metrics.Enable()
		if !metrics.IsEnabled() {
			t.Error("Metrics should be enabled")
		}
	})
}

// TestRoomWithLimits tests room connection limits
func TestRoomWithLimits(t *testing.T) {
	t.Run("MaxConnections", func(t *testing.T) {
		config := &Config{
			MaxConnectionsPerRoom: 2,
		}

		hub := NewHubWithConfig(config)
		go hub.Run()
		defer hub.Shutdown()

		// Create a room
		room := hub.roomManager.CreateRoom("test-room")

		// Create mock connections
		conn1 := &Connection{ID: "conn1", hub: hub, Data: make(map[string]interface{}), rooms: make(map[string]bool)}
		conn2 := &Connection{ID: "conn2", hub: hub, Data: make(map[string]interface{}), rooms: make(map[string]bool)}
		conn3 := &Connection{ID: "conn3", hub: hub, Data: make(map[string]interface{}), rooms: make(map[string]bool)}

		// Add connections up to the limit
		err := room.Add(conn1)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}

		err = room.Add(conn2)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}

		// Try to add beyond the limit
		err = room.Add(conn3)
		if err != ErrRoomFull {
			t.Errorf("Expected ErrRoomFull, got %v", err)
		}

		if room.Size() != 2 {
			t.Errorf("Expected room size to be 2, got %d", room.Size())
		}
	})
}

// TestConnectionState tests connection state preservation
func TestConnectionState(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping flaky test in short mode")
	}
	t.Run("StatePreservation", func(t *testing.T) {
		config := &Config{
			EnableReconnection:  true,
			PreserveClientState: true,
			ReconnectionTimeout: 5 * time.Second,
			MaxReconnectionTime: 5 * time.Minute,
		}

		hub := NewHubWithConfig(config)
		go hub.Run()
		defer hub.Shutdown()

		// Wait for hub to be ready
		<-hub.started

		// Create a mock connection with state
		conn := &Connection{
			ID:    "conn1",
			hub:   hub,
			Data:  make(map[string]interface{}),
			rooms: make(map[string]bool),
		}
		conn.SetData("clientID", "client123")
		conn.SetData("username", "testuser")
		conn.rooms["room1"] = true

		// Save connection state
		hub.saveConnectionState(conn)

		// Verify state was saved
		hub.stateMu.RLock()
		state, exists := hub.connectionStates["client123"]
		hub.stateMu.RUnlock()

		if !exists {
			t.Fatal("Connection state was not saved")
		}

		if state.ClientID != "client123" {
			t.Errorf("Expected clientID to be 'client123', got %s", state.ClientID)
		}

		if len(state.Rooms) != 1 {
			t.Errorf("Expected 1 room, got %d", len(state.Rooms))
		}

		// Create a new connection and restore state
		newConn := &Connection{
			ID:    "conn2",
			hub:   hub,
			Data:  make(map[string]interface{}),
			rooms: make(map[string]bool),
		}

		restored := hub.RestoreConnectionState(newConn, "client123")
		if !restored {
			t.Error("Failed to restore connection state")
		}

		// Verify data was restored
		username, ok := newConn.GetData("username")
		if !ok || username != "testuser" {
			t.Error("Username was not restored correctly")
		}

		clientID, ok := newConn.GetData("clientID")
		if !ok || clientID != "client123" {
			t.Error("ClientID was not restored correctly")
		}
	})

	t.Run("StateExpiration", func(t *testing.T) {
		config := &Config{
			EnableReconnection:  true,
			PreserveClientState: true,
			ReconnectionTimeout: 100 * time.Millisecond,
			MaxReconnectionTime: 200 * time.Millisecond,
		}

		hub := NewHubWithConfig(config)
		go hub.Run()
		defer hub.Shutdown()

		// Save a connection state
		hub.stateMu.Lock()
		hub.connectionStates["client123"] = &ConnectionState{
			ClientID: "client123",
			LastSeen: time.Now().Add(-500 * time.Millisecond), // Old state
			Data:     make(map[string]interface{}),
			Rooms:    []string{},
		}
		hub.stateMu.Unlock()

		// Try to restore - should fail due to age
		newConn := &Connection{
			ID:    "conn2",
			hub:   hub,
			Data:  make(map[string]interface{}),
			rooms: make(map[string]bool),
		}

		restored := hub.RestoreConnectionState(newConn, "client123")
		if restored {
			t.Error("Should not restore expired state")
		}
	})
}

// TestQueueStrategies tests message queueing strategies
func TestQueueStrategies(t *testing.T) {
	t.Run("DropNewest", func(t *testing.T) {
		config := &Config{
			MessageQueueSize:     1,
			MessageQueueStrategy: QueueStrategyDropNewest,
		}

		hub := NewHubWithConfig(config)
		go hub.Run()
		defer hub.Shutdown()

		conn := &Connection{
			ID:   "conn1",
			hub:  hub,
			send: make(chan []byte, 1),
			Data: make(map[string]interface{}),
		}

		// Fill the queue
		conn.send <- []byte("message1")

		// Try to send another message - should be dropped
		err := conn.Send([]byte("message2"))
		if err != nil {
			t.Errorf("Send should not return error with DropNewest, got %v", err)
		}

		// Queue should still have only first message
		select {
		case msg := <-conn.send:
			if string(msg) != "message1" {
				t.Errorf("Expected 'message1', got %s", string(msg))
			}
		default:
			t.Error("Expected message in queue")
		}

		// Queue should be empty now
		select {
		case <-conn.send:
			t.Error("Queue should be empty")
		default:
			// Expected
		}
	})

	t.Run("DropOldest", func(t *testing.T) {
		config := &Config{
			MessageQueueSize:     1,
			MessageQueueStrategy: QueueStrategyDropOldest,
		}

		hub := NewHubWithConfig(config)
		go hub.Run()
		defer hub.Shutdown()

		conn := &Connection{
			ID:   "conn1",
			hub:  hub,
			send: make(chan []byte, 1),
			Data: make(map[string]interface{}),
		}

		// Fill the queue
		conn.send <- []byte("message1")

		// Send another message - should drop oldest
		err := conn.Send([]byte("message2"))
		if err != nil {
			t.Errorf("Send should not return error, got %v", err)
		}

		// Queue should have second message (first was dropped)
		select {
		case msg := <-conn.send:
			if string(msg) != "message2" {
				t.Errorf("Expected 'message2', got %s", string(msg))
			}
		default:
			t.Error("Expected message in queue")
		}
	})
}


// TestNewBinaryMessage tests NewBinaryMessage
func TestNewBinaryMessage(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	msg := NewBinaryMessage(data)

	if msg.Type != MessageTypeBinary {
		t.Errorf("Expected MessageTypeBinary, got %s", msg.Type)
	}

	payload, ok := msg.Data.([]byte)
	if !ok || string(payload) != string(data) {
		t.Error("Data mismatch")
	}
}

// TestNewErrorMessage tests NewErrorMessage
func TestNewErrorMessage(t *testing.T) {
	err := errors.New("test error")
	msg := NewErrorMessage(err)

	if msg.Type != MessageTypeError {
		t.Errorf("Expected MessageTypeError, got %s", msg.Type)
	}

	// NewErrorMessage wraps error in a map
	dataMap, ok := msg.Data.(map[string]interface{})
	if !ok {
		t.Error("Expected Data to be a map")
		return
	}
	if dataMap["error"] != "test error" {
		t.Errorf("Expected 'test error', got %v", dataMap["error"])
	}
}

// TestMessageMetadata tests SetMetadata and GetMetadata
func TestMessageMetadata(t *testing.T) {
	msg := NewMessage(MessageTypeText, "test")

	msg.SetMetadata("key1", "value1")
	msg.SetMetadata("key2", 42)

	val, ok := msg.GetMetadata("key1")
	if !ok || val != "value1" {
		t.Error("Failed to get key1 metadata")
	}

	val2, ok := msg.GetMetadata("key2")
	if !ok || val2 != 42 {
		t.Error("Failed to get key2 metadata")
	}

	_, ok = msg.GetMetadata("nonexistent")
	if ok {
		t.Error("Expected false for nonexistent key")
	}
}

// TestFromJSONMessage tests FromJSON function
func TestFromJSONMessage(t *testing.T) {
	jsonData := []byte(`{"type":"text","data":"hello"}`)
	msg, err := FromJSON(jsonData)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}

	if msg.Type != MessageTypeText {
		t.Errorf("Expected MessageTypeText, got %s", msg.Type)
	}
}

// TestMetricsFunctions tests additional metrics functions
func TestMetricsFunctions(t *testing.T) {
	t.Run("IncrementRejectedConnections", func(t *testing.T) {
		metrics := NewMetrics()
		metrics.IncrementRejectedConnections()
		// Just verify no panic
	})

	t.Run("IncrementMessagesFailed", func(t *testing.T) {
		metrics := NewMetrics()
		metrics.IncrementMessagesFailed()
		// Just verify no panic
	})

	t.Run("IncrementRooms and DecrementRooms", func(t *testing.T) {
		metrics := NewMetrics()
		metrics.IncrementRooms()
		metrics.DecrementRooms()
		// Just verify no panic
	})

	t.Run("GetLastMessageTime", func(t *testing.T) {
		metrics := NewMetrics()
		metrics.IncrementMessagesSent(10)
		lastTime := metrics.GetLastMessageTime()
		if lastTime.IsZero() {
			t.Error("Expected non-zero last message time")
		}
	})

	t.Run("GetAllConnectionMetrics", func(t *testing.T) {
		metrics := NewMetrics()
		metrics.RegisterConnection("conn1")
		metrics.RegisterConnection("conn2")

		allMetrics := metrics.GetAllConnectionMetrics()
		if len(allMetrics) != 2 {
			t.Errorf("Expected 2 connection metrics, got %d", len(allMetrics))
		}
	})
}

// TestHubGetConnections tests GetConnections
func TestHubGetConnections(t *testing.T) {
	config := DefaultConfig()
	hub := NewHubWithConfig(config)
	go hub.Run()
	defer hub.Shutdown()

	// Initially no connections
	conns := hub.GetConnections()
	if len(conns) != 0 {
		t.Errorf("Expected 0 connections, got %d", len(conns))
	}
}

// TestHubRoomBroadcast tests BroadcastToRoom on Hub
func TestHubRoomBroadcast(t *testing.T) {
	config := DefaultConfig()
	hub := NewHubWithConfig(config)
	go hub.Run()
	defer hub.Shutdown()

	// Create a room and broadcast to it
	hub.roomManager.CreateRoom("test-room")
	hub.BroadcastToRoom("test-room", []byte("hello"), nil)
	// Just verify no panic
}


// TestConnectionHealthMethods tests health-related connection methods
func TestConnectionHealthMethods(t *testing.T) {
	config := DefaultConfig()
	hub := NewHubWithConfig(config)
	go hub.Run()
	defer hub.Shutdown()

	conn := &Connection{
		ID:           "test-conn",
		hub:          hub,
		send:         make(chan []byte, 256),
		Data:         make(map[string]interface{}),
		rooms:        make(map[string]bool),
		missedPongs:  0,
		lastPongTime: time.Now(),
	}

	t.Run("GetMissedPongs", func(t *testing.T) {
		pongs := conn.GetMissedPongs()
		if pongs != 0 {
			t.Errorf("Expected 0, got %d", pongs)
		}
	})

	t.Run("GetLastPongTime", func(t *testing.T) {
		pongTime := conn.GetLastPongTime()
		if pongTime.IsZero() {
			t.Error("Expected non-zero time")
		}
	})

	t.Run("IsHealthy", func(t *testing.T) {
		healthy := conn.IsHealthy()
		if !healthy {
			t.Error("Expected connection to be healthy")
		}
	})
}

// TestOnMessage tests the OnMessage callback
func TestOnMessage(t *testing.T) {
	config := DefaultConfig()
	hub := NewHubWithConfig(config)
	go hub.Run()
	defer hub.Shutdown()

	called := false
	hub.OnMessage(MessageTypeText, func(ctx *MessageContext) error {
		called = true
		return nil
	})

	// Just verify handler is set (we can't easily trigger the callback)
	_ = called
}

// TestServerOnMessage tests Server.OnMessage
func TestServerOnMessage(t *testing.T) {
	server := NewServer()
	hub := server.GetHub()
	go hub.Run()
	defer server.Shutdown()

	called := false
	server.OnMessage(MessageTypeText, func(ctx *MessageContext) error {
		called = true
		return nil
	})

	// Just verify handler is set
	_ = called
}

// TestRoomManagerBroadcastToRoom tests RoomManager.BroadcastToRoom
func TestRoomManagerBroadcastToRoom(t *testing.T) {
	rm := NewRoomManager()
	rm.CreateRoom("test")

	// BroadcastToRoom to existing room
	rm.BroadcastToRoom("test", []byte("hello"), nil)

	// BroadcastToRoom to non-existing room
	rm.BroadcastToRoom("nonexistent", []byte("hello"), nil)
}

// TestMetricsDisabledBranches verifies that all increment functions are no-ops when disabled.
// This covers the `if !m.enabled.Load() { return }` branch in every metrics function.
func TestMetricsDisabledBranches(t *testing.T) {
	m := NewMetrics()
	m.Disable()

	// Connection metrics
	m.IncrementConnections()
	if m.GetActiveConnections() != 0 {
		t.Error("IncrementConnections should be no-op when disabled")
	}
	if m.GetTotalConnections() != 0 {
		t.Error("totalConnections should be 0 when disabled")
	}

	m.DecrementConnections()
	if m.GetActiveConnections() != 0 {
		t.Error("DecrementConnections should be no-op when disabled")
	}
	if m.GetTotalDisconnections() != 0 {
		t.Error("totalDisconnections should be 0 when disabled")
	}

	m.IncrementRejectedConnections()
	if m.GetRejectedConnections() != 0 {
		t.Error("IncrementRejectedConnections should be no-op when disabled")
	}

	// Message metrics
	m.IncrementMessagesSent(100)
	if m.GetMessagesSent() != 0 {
		t.Error("IncrementMessagesSent should be no-op when disabled")
	}
	if m.GetBytesSent() != 0 {
		t.Error("bytesSent should be 0 when disabled")
	}

	m.IncrementMessagesReceived(200)
	if m.GetMessagesReceived() != 0 {
		t.Error("IncrementMessagesReceived should be no-op when disabled")
	}
	if m.GetBytesReceived() != 0 {
		t.Error("bytesReceived should be 0 when disabled")
	}

	m.IncrementMessagesFailed()
	if m.GetMessagesFailed() != 0 {
		t.Error("IncrementMessagesFailed should be no-op when disabled")
	}

	// Error metrics
	m.IncrementReadErrors()
	if m.GetReadErrors() != 0 {
		t.Error("IncrementReadErrors should be no-op when disabled")
	}

	m.IncrementWriteErrors()
	if m.GetWriteErrors() != 0 {
		t.Error("IncrementWriteErrors should be no-op when disabled")
	}

	m.IncrementHandlerErrors()
	if m.GetHandlerErrors() != 0 {
		t.Error("IncrementHandlerErrors should be no-op when disabled")
	}

	// Room metrics
	m.IncrementRooms()
	if m.GetActiveRooms() != 0 {
		t.Error("IncrementRooms should be no-op when disabled")
	}

	m.DecrementRooms()
	if m.GetActiveRooms() != 0 {
		t.Error("DecrementRooms should be no-op when disabled")
	}

	// Heartbeat metrics
	m.IncrementMissedPongs()
	if m.GetMissedPongs() != 0 {
		t.Error("IncrementMissedPongs should be no-op when disabled")
	}

	m.IncrementSuccessfulPongs()
	if m.GetSuccessfulPongs() != 0 {
		t.Error("IncrementSuccessfulPongs should be no-op when disabled")
	}

	// Queue metrics
	m.IncrementQueueOverflows()
	if m.GetQueueOverflows() != 0 {
		t.Error("IncrementQueueOverflows should be no-op when disabled")
	}

	m.IncrementDroppedMessages()
	if m.GetDroppedMessages() != 0 {
		t.Error("IncrementDroppedMessages should be no-op when disabled")
	}

	// Per-connection metrics when disabled
	m.RegisterConnection("conn-disabled")
	if m.GetConnectionMetrics("conn-disabled") != nil {
		t.Error("RegisterConnection should be no-op when disabled")
	}

	// Re-enable, register, disable, and test per-connection increments
	m.Enable()
	m.RegisterConnection("conn-test")
	m.Disable()

	m.IncrementConnectionMessagesSent("conn-test", 50)
	m.IncrementConnectionMessagesReceived("conn-test", 60)
	m.IncrementConnectionErrors("conn-test")
	m.IncrementConnectionMissedPongs("conn-test")

	m.Enable()
	cm := m.GetConnectionMetrics("conn-test")
	if cm == nil {
		t.Fatal("Expected connection metrics to exist")
	}
	if cm.MessagesSent != 0 {
		t.Error("IncrementConnectionMessagesSent should be no-op when disabled")
	}
	if cm.MessagesReceived != 0 {
		t.Error("IncrementConnectionMessagesReceived should be no-op when disabled")
	}
	if cm.Errors != 0 {
		t.Error("IncrementConnectionErrors should be no-op when disabled")
	}
	if cm.MissedPongs != 0 {
		t.Error("IncrementConnectionMissedPongs should be no-op when disabled")
	}

	// UnregisterConnection when disabled
	m.Disable()
	m.UnregisterConnection("conn-test")
	m.Enable()
	// conn-test should still exist because unregister was disabled
	if m.GetConnectionMetrics("conn-test") == nil {
		t.Error("UnregisterConnection should be no-op when disabled")
	}
}

// TestMessageSetMetadataNilMap tests SetMetadata when Metadata map is nil
func TestMessageSetMetadataNilMap(t *testing.T) {
	msg := &Message{
		Type:     MessageTypeText,
		Metadata: nil,
	}
	// SetMetadata should initialize the map before setting the key
	msg.SetMetadata("key", "value")

	if msg.Metadata == nil {
		t.Fatal("SetMetadata should initialize Metadata map")
	}
	if msg.Metadata["key"] != "value" {
		t.Errorf("Expected 'value', got %v", msg.Metadata["key"])
	}
}

// TestMessageGetMetadataNilMap tests GetMetadata when Metadata map is nil
func TestMessageGetMetadataNilMap(t *testing.T) {
	msg := &Message{
		Type:     MessageTypeText,
		Metadata: nil,
	}
	val, ok := msg.GetMetadata("anything")
	if ok {
		t.Error("GetMetadata on nil map should return false")
	}
	if val != nil {
		t.Errorf("GetMetadata on nil map should return nil, got %v", val)
	}
}

// TestFromJSONInvalid tests FromJSON with invalid JSON input
func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte("not valid json"))
	if err == nil {
		t.Error("FromJSON should return error for invalid JSON")
	}
}

// TestMessageContextBroadcast tests MessageContext.Broadcast
func TestMessageContextBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	// Wait for hub to be ready
	<-hub.started

	conn := &Connection{
		ID:    "ctx-broadcast-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}

	// Register connection so it can receive broadcasts
	hub.register <- conn
	// Wait for it to be registered
	for i := 0; i < 100; i++ {
		if hub.GetConnectionCount() == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	msg := NewTextMessage("hello")
	ctx := &MessageContext{
		Conn:    conn,
		Message: msg,
	}

	ctx.Broadcast(MessageTypeText, "broadcast data")

	// The broadcast message goes through hub.broadcast channel
	select {
	case received := <-conn.send:
		if len(received) == 0 {
			t.Error("Expected non-empty broadcast message")
		}
	case <-time.After(2 * time.Second):
		t.Error("Broadcast message not received within timeout")
	}
}

// TestMessageContextBroadcastToRoom tests MessageContext.BroadcastToRoom
func TestMessageContextBroadcastToRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	// Wait for hub to be ready
	<-hub.started

	conn := &Connection{
		ID:    "ctx-room-broadcast-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}

	// Create room and add connection
	hub.roomManager.CreateRoom("test-broadcast-room")
	hub.roomManager.AddConnectionToRoom(conn, "test-broadcast-room")

	msg := NewTextMessage("hello")
	ctx := &MessageContext{
		Conn:    conn,
		Message: msg,
	}

	// BroadcastToRoom excludes the sender, so add a second connection to receive
	conn2 := &Connection{
		ID:    "ctx-room-broadcast-conn2",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	hub.roomManager.AddConnectionToRoom(conn2, "test-broadcast-room")

	ctx.BroadcastToRoom("test-broadcast-room", MessageTypeText, "room data")

	// The message goes through hub.broadcastToRoom channel; conn2 should receive
	select {
	case received := <-conn2.send:
		if len(received) == 0 {
			t.Error("Expected non-empty room broadcast message")
		}
	case <-time.After(2 * time.Second):
		t.Error("Room broadcast message not received within timeout")
	}
}

// TestConnectionSetRoutePattern tests SetRoutePattern and RoutePattern
func TestConnectionSetRoutePattern(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	conn := &Connection{
		ID:    "route-pattern-conn",
		hub:   hub,
		send:  make(chan []byte, 256),
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}

	conn.SetRoutePattern("/chat/:room")
	if conn.RoutePattern() != "/chat/:room" {
		t.Errorf("Expected '/chat/:room', got '%s'", conn.RoutePattern())
	}
}

// TestConnectionIsHealthyUnhealthy tests IsHealthy returns false for unhealthy connections
func TestConnectionIsHealthyUnhealthy(t *testing.T) {
	config := DefaultConfig()
	config.EnableHeartbeat = true
	config.MaxMissedPongs = 3
	config.HeartbeatTimeout = 100 * time.Millisecond

	hub := NewHubWithConfig(config)
	go hub.Run()
	defer hub.Shutdown()

	t.Run("ExceededMaxMissedPongs", func(t *testing.T) {
		conn := &Connection{
			ID:           "unhealthy-pongs",
			hub:          hub,
			send:         make(chan []byte, 256),
			Data:         make(map[string]interface{}),
			rooms:        make(map[string]bool),
			missedPongs:  5,
			lastPongTime: time.Now(),
		}
		if conn.IsHealthy() {
			t.Error("Connection with exceeded missed pongs should be unhealthy")
		}
	})

	t.Run("ExpiredPongTimeout", func(t *testing.T) {
		conn := &Connection{
			ID:           "unhealthy-timeout",
			hub:          hub,
			send:         make(chan []byte, 256),
			Data:         make(map[string]interface{}),
			rooms:        make(map[string]bool),
			missedPongs:  0,
			lastPongTime: time.Now().Add(-10 * time.Second),
		}
		if conn.IsHealthy() {
			t.Error("Connection with expired pong timeout should be unhealthy")
		}
	})

	t.Run("HeartbeatDisabledAlwaysHealthy", func(t *testing.T) {
		noHeartbeatConfig := DefaultConfig()
		noHeartbeatConfig.EnableHeartbeat = false
		noHBHub := NewHubWithConfig(noHeartbeatConfig)
		go noHBHub.Run()
		defer noHBHub.Shutdown()

		conn := &Connection{
			ID:           "no-hb-conn",
			hub:          noHBHub,
			send:         make(chan []byte, 256),
			Data:         make(map[string]interface{}),
			rooms:        make(map[string]bool),
			missedPongs:  100,
			lastPongTime: time.Time{},
		}
		if !conn.IsHealthy() {
			t.Error("Connection should be healthy when heartbeat is disabled")
		}
	})
}

// TestHubOnConnectForRoute tests route-specific connect handlers in the hub Run loop
func TestHubOnConnectForRoute(t *testing.T) {
	hub := NewHub()

	routeHandlerCalled := make(chan struct{})
	hub.OnConnectForRoute("/chat/:room", func(conn *Connection) error {
		close(routeHandlerCalled)
		return nil
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "route-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	conn.SetRoutePattern("/chat/:room")

	hub.register <- conn

	select {
	case <-routeHandlerCalled:
		// success
	case <-time.After(2 * time.Second):
		t.Error("Route-specific OnConnect handler was not called")
	}
}

// TestHubOnDisconnectForRoute tests route-specific disconnect handlers in the hub Run loop
func TestHubOnDisconnectForRoute(t *testing.T) {
	hub := NewHub()

	connected := make(chan struct{})
	routeDisconnectCalled := make(chan struct{})
	hub.OnConnect(func(conn *Connection) error {
		close(connected)
		return nil
	})
	hub.OnDisconnectForRoute("/chat/:room", func(conn *Connection) error {
		close(routeDisconnectCalled)
		return nil
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "route-disc-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	conn.SetRoutePattern("/chat/:room")

	hub.register <- conn

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("Connection registration timed out")
	}

	hub.unregister <- conn

	select {
	case <-routeDisconnectCalled:
		// success
	case <-time.After(2 * time.Second):
		t.Error("Route-specific OnDisconnect handler was not called")
	}
}

// TestHubOnConnectHandlerError tests that connect handler errors are handled gracefully
func TestHubOnConnectHandlerError(t *testing.T) {
	hub := NewHub()

	handlerDone := make(chan struct{})
	hub.OnConnect(func(conn *Connection) error {
		defer close(handlerDone)
		return errors.New("connect handler error")
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "error-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	hub.register <- conn

	select {
	case <-handlerDone:
		// Connection should still be registered despite handler error
		if hub.GetConnectionCount() != 1 {
			t.Error("Connection should be registered even if handler errors")
		}
		// Verify handler error was counted in metrics
		if hub.metrics.GetHandlerErrors() < 1 {
			t.Error("Handler error should be tracked in metrics")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect handler was not called")
	}
}

// TestHubOnDisconnectHandlerError tests that disconnect handler errors are handled gracefully
func TestHubOnDisconnectHandlerError(t *testing.T) {
	hub := NewHub()

	connected := make(chan struct{})
	disconnectDone := make(chan struct{})
	hub.OnConnect(func(conn *Connection) error {
		close(connected)
		return nil
	})
	hub.OnDisconnect(func(conn *Connection) error {
		defer close(disconnectDone)
		return errors.New("disconnect handler error")
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "disc-error-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	hub.register <- conn

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("Connection not registered")
	}

	hub.unregister <- conn

	select {
	case <-disconnectDone:
		// Should not panic despite handler error
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect handler was not called")
	}
}

// TestHubRunMessageHandling tests the handleMessage branch of hub.Run()
func TestHubRunMessageHandling(t *testing.T) {
	hub := NewHub()

	handlerCalled := make(chan struct{})
	hub.OnMessage(MessageTypeText, func(ctx *MessageContext) error {
		close(handlerCalled)
		return nil
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "msg-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}

	msg := NewTextMessage("test data")
	msg.ConnectionID = conn.ID

	hub.handleMessage <- &MessageContext{
		Conn:    conn,
		Message: msg,
	}

	select {
	case <-handlerCalled:
		// success
	case <-time.After(2 * time.Second):
		t.Error("Message handler was not invoked through hub.Run()")
	}
}

// TestHubRunMessageHandlerError tests that message handler errors are tracked in metrics
func TestHubRunMessageHandlerError(t *testing.T) {
	hub := NewHub()

	handlerCalled := make(chan struct{})
	hub.OnMessage(MessageTypeText, func(ctx *MessageContext) error {
		defer close(handlerCalled)
		return errors.New("handler error")
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "msg-err-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}

	msg := NewTextMessage("test")
	msg.ConnectionID = conn.ID

	hub.handleMessage <- &MessageContext{
		Conn:    conn,
		Message: msg,
	}

	select {
	case <-handlerCalled:
		// Give the hub a moment to process the error
		time.Sleep(50 * time.Millisecond)
		if hub.metrics.GetHandlerErrors() < 1 {
			t.Error("Message handler error should be tracked in metrics")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Handler was not called")
	}
}

// TestHubConnectionLimit registers one connection under a hub limit of 1; the
// rejection of a second connection is not exercised
func TestHubConnectionLimit(t *testing.T) {
	config := DefaultConfig()
	config.MaxConnectionsPerHub = 1

	hub := NewHubWithConfig(config)

	connected := make(chan struct{})
	hub.OnConnect(func(conn *Connection) error {
		close(connected)
		return nil
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn1 := &Connection{
		ID:    "limit-conn1",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}

	hub.register <- conn1

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("First connection registration timed out")
	}

	// Second connection should be rejected (no real websocket conn to close, but
	// the code path that increments rejectedConnections is exercised)
	// We need a mock conn object since hub tries to close it
	// The metrics increment is what we want to test
	initialRejected := hub.metrics.GetRejectedConnections()

	conn2 := &Connection{
		ID:    "limit-conn2",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	// This will try to close nil conn, which will panic, so let's skip this
	// test for the actual rejection since it requires a real ws conn.
	_ = conn2
	_ = initialRejected
}

// TestNewConnectionCustomQueueSize tests NewConnection with default queue size fallback
func TestNewConnectionCustomQueueSize(t *testing.T) {
	config := DefaultConfig()
	config.MessageQueueSize = 0 // Should fallback to 256
	hub := NewHubWithConfig(config)
	go hub.Run()
	defer hub.Shutdown()

	conn := NewConnection("test-id", nil, hub)
	if conn == nil {
		t.Fatal("NewConnection returned nil")
	}
	if conn.ID != "test-id" {
		t.Errorf("Expected ID 'test-id', got '%s'", conn.ID)
	}
	// The send channel should have capacity 256 (fallback)
	if cap(conn.send) != 256 {
		t.Errorf("Expected send channel capacity 256, got %d", cap(conn.send))
	}
}

// TestHubDoubleRun tests that calling Run() twice does not cause issues
func TestHubDoubleRun(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	// Calling Run() again should return immediately
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	select {
	case <-done:
		// Run returned immediately as expected
	case <-time.After(2 * time.Second):
		t.Error("Second call to Run() should return immediately")
	}
}

// TestHubShutdownWithoutRun tests that Shutdown is safe even if Run was never called
func TestHubShutdownWithoutRun(t *testing.T) {
	hub := NewHub()
	// Should not panic or hang
	hub.Shutdown()
}

// TestNewHubWithNilConfig tests that NewHubWithConfig handles nil config
func TestNewHubWithNilConfig(t *testing.T) {
	hub := NewHubWithConfig(nil)
	if hub == nil {
		t.Fatal("NewHubWithConfig(nil) should not return nil")
	}
	if hub.config == nil {
		t.Fatal("Hub config should be set to default when nil is passed")
	}
	hub.Shutdown()
}

// TestHubOnConnectRouteHandlerError tests route-specific handler error tracking
func TestHubOnConnectRouteHandlerError(t *testing.T) {
	hub := NewHub()

	handlerDone := make(chan struct{})
	hub.OnConnectForRoute("/api/:id", func(conn *Connection) error {
		defer close(handlerDone)
		return errors.New("route connect error")
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "route-err-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	conn.SetRoutePattern("/api/:id")

	hub.register <- conn

	select {
	case <-handlerDone:
		time.Sleep(50 * time.Millisecond)
		if hub.metrics.GetHandlerErrors() < 1 {
			t.Error("Route handler error should be tracked in metrics")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Route OnConnect handler was not called")
	}
}

// TestHubOnDisconnectRouteHandlerError tests route-specific disconnect handler error tracking
func TestHubOnDisconnectRouteHandlerError(t *testing.T) {
	hub := NewHub()

	connected := make(chan struct{})
	disconnectDone := make(chan struct{})
	hub.OnConnect(func(conn *Connection) error {
		close(connected)
		return nil
	})
	hub.OnDisconnectForRoute("/api/:id", func(conn *Connection) error {
		defer close(disconnectDone)
		return errors.New("route disconnect error")
	})

	go hub.Run()
	defer hub.Shutdown()
	<-hub.started

	conn := &Connection{
		ID:    "route-disc-err-conn",
		send:  make(chan []byte, 256),
		hub:   hub,
		Data:  make(map[string]interface{}),
		rooms: make(map[string]bool),
	}
	conn.SetRoutePattern("/api/:id")

	hub.register <- conn
	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("Connection not registered")
	}

	hub.unregister <- conn
	select {
	case <-disconnectDone:
		time.Sleep(50 * time.Millisecond)
		if hub.metrics.GetHandlerErrors() < 1 {
			t.Error("Route disconnect handler error should be tracked")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Route OnDisconnect handler not called")
	}
}
