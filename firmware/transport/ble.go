package transport

import (
	"errors"
	"sync/atomic"

	"tinygo.org/x/bluetooth"

	"github.com/calvinmclean/hackablelamp"
)

var ErrNotConnected = errors.New("no central connected")

// BLEConfig configures the BLE peripheral
type BLEConfig struct {
	LocalName string
	QueueSize int
}

// DefaultBLEConfig advertises as the lamp's device name
func DefaultBLEConfig() BLEConfig {
	return BLEConfig{
		LocalName: hackablelamp.DeviceName,
		QueueSize: DefaultQueueSize,
	}
}

// BLE is a GATT peripheral exposing the lamp service. Characteristic writes arrive in the radio
// stack's context, so they are copied onto a Queue and dispatched from Poll. Advertising restarts
// on the first Poll after a central disconnects
type BLE struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
	tx      bluetooth.Characteristic
	queue   *Queue
	handler Handler

	connected   atomic.Bool
	readvertise atomic.Bool
}

type bleChannel struct {
	uuid    string
	channel hackablelamp.Channel
}

var writableChannels = []bleChannel{
	{hackablelamp.RXCharUUID, hackablelamp.ChannelUART},
	{hackablelamp.ShutterCharUUID, hackablelamp.ChannelShutter},
	{hackablelamp.RGBCharUUID, hackablelamp.ChannelColor},
	{hackablelamp.AnimCharUUID, hackablelamp.ChannelPattern},
}

// NewBLE enables the adapter, registers the lamp service and starts advertising
func NewBLE(adapter *bluetooth.Adapter, cfg BLEConfig, handler Handler) (*BLE, error) {
	b := &BLE{
		adapter: adapter,
		queue:   NewQueue(cfg.QueueSize),
		handler: handler,
	}

	adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		b.connected.Store(connected)
		if !connected {
			b.readvertise.Store(true)
		}
	})

	err := adapter.Enable()
	if err != nil {
		return nil, errors.New("error enabling adapter: " + err.Error())
	}

	serviceUUID, err := bluetooth.ParseUUID(hackablelamp.ServiceUUID)
	if err != nil {
		return nil, errors.New("invalid service UUID: " + err.Error())
	}
	txUUID, err := bluetooth.ParseUUID(hackablelamp.TXCharUUID)
	if err != nil {
		return nil, errors.New("invalid TX UUID: " + err.Error())
	}

	characteristics := []bluetooth.CharacteristicConfig{{
		Handle: &b.tx,
		UUID:   txUUID,
		Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
	}}
	for _, c := range writableChannels {
		uuid, err := bluetooth.ParseUUID(c.uuid)
		if err != nil {
			return nil, errors.New("invalid " + c.channel.String() + " UUID: " + err.Error())
		}
		characteristics = append(characteristics, bluetooth.CharacteristicConfig{
			UUID:       uuid,
			Flags:      bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
			WriteEvent: b.writeEvent(c.channel),
		})
	}

	err = adapter.AddService(&bluetooth.Service{
		UUID:            serviceUUID,
		Characteristics: characteristics,
	})
	if err != nil {
		return nil, errors.New("error adding service: " + err.Error())
	}

	b.adv = adapter.DefaultAdvertisement()
	err = b.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    cfg.LocalName,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	})
	if err != nil {
		return nil, errors.New("error configuring advertisement: " + err.Error())
	}

	err = b.adv.Start()
	if err != nil {
		return nil, errors.New("error starting advertisement: " + err.Error())
	}

	return b, nil
}

func (b *BLE) writeEvent(ch hackablelamp.Channel) func(bluetooth.Connection, int, []byte) {
	return func(_ bluetooth.Connection, _ int, value []byte) {
		b.queue.Push(ch, value)
	}
}

// Poll restarts advertising after a disconnect and dispatches queued writes
func (b *BLE) Poll() error {
	var err error
	if b.readvertise.Swap(false) {
		err = b.adv.Start()
		if err != nil {
			// try again next Poll
			b.readvertise.Store(true)
			err = errors.New("error restarting advertisement: " + err.Error())
		}
	}

	b.queue.Drain(b.handler)
	return err
}

// Notify sends payload on the TX characteristic. It fails with ErrNotConnected if nobody is listening
func (b *BLE) Notify(payload []byte) error {
	if !b.connected.Load() {
		return ErrNotConnected
	}
	if len(payload) > hackablelamp.MaxFramePayload {
		payload = payload[:hackablelamp.MaxFramePayload]
	}
	_, err := b.tx.Write(payload)
	return err
}

// Connected reports whether a central is connected
func (b *BLE) Connected() bool {
	return b.connected.Load()
}

// Dropped returns the number of writes dropped because the loop fell behind
func (b *BLE) Dropped() uint32 {
	return b.queue.Dropped()
}
