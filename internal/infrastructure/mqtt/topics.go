package mqtt

import "fmt"

// TopicRoot is the first level of every actioncore topic.
const TopicRoot = "actioncore"

// Topics builds the topics of one robot:
//
//	actioncore/{robot}/status            retained online/offline
//	actioncore/{robot}/command/{track}   actuator commands
//	actioncore/{robot}/action/completed  completion records
//	actioncore/{robot}/action/queues     queue snapshots (retained)
type Topics struct {
	robot string
}

// NewTopics returns the topic builder for robotID.
func NewTopics(robotID string) Topics {
	return Topics{robot: robotID}
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicRoot, t.robot)
}

// Status returns the robot status topic.
func (t Topics) Status() string {
	return t.base() + "/status"
}

// Command returns the command topic for a track.
//
// Example: actioncore/robot-001/command/head
func (t Topics) Command(track string) string {
	return fmt.Sprintf("%s/command/%s", t.base(), track)
}

// ActionCompleted returns the completion record topic.
func (t Topics) ActionCompleted() string {
	return t.base() + "/action/completed"
}

// ActionQueues returns the queue snapshot topic.
func (t Topics) ActionQueues() string {
	return t.base() + "/action/queues"
}

// AllCommands returns a pattern matching every command of the robot.
//
// Pattern: actioncore/robot-001/command/+
func (t Topics) AllCommands() string {
	return t.base() + "/command/+"
}
