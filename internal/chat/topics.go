package chat

// TopicMessageCreated carries the persisted message record after a
// successful append. The realtime fanout subscribes to it.
const TopicMessageCreated = "chat.message.created"
